// Package logging provides structured logging for dbarchive using slog.
//
// The package supports a TTY-aware text format and a JSON format,
// verbosity-based level selection, fan-out to several handlers, and
// helpers for tests. All loggers are based on the standard library's
// [log/slog] package.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("export scheduled", "file", name)
//
// # Redaction
//
// Attribute values whose key looks sensitive (password, token, secret, dsn)
// are masked by the text handler. Database URLs carrying credentials are
// passed through [MaskURL].
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
package logging
