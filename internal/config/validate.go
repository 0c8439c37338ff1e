package config

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/dbarchive/internal/errors"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidBufferSize indicates a non-positive transfer buffer size.
	ErrInvalidBufferSize = errors.New("buffer_size must be > 0")

	// ErrInvalidDelay indicates a negative export delay.
	ErrInvalidDelay = errors.New("export_delay must be >= 0")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrMissingPath indicates a required path is empty.
	ErrMissingPath = errors.New("path is required")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.BufferSize <= 0 {
		errs = append(errs, ErrInvalidBufferSize)
	}
	if cfg.ExportDelay < 0 {
		errs = append(errs, ErrInvalidDelay)
	}

	required := []struct {
		field string
		path  string
	}{
		{KeyBackupDir, cfg.BackupDir},
		{KeyDatabase, cfg.Database},
	}
	for _, r := range required {
		if r.path == "" {
			errs = append(errs, &PathError{Field: r.field, Err: ErrMissingPath})
			continue
		}
		if err := validatePath(r.path); err != nil {
			errs = append(errs, &PathError{Field: r.field, Path: r.path, Err: err})
		}
	}

	if cfg.TempDir != "" {
		if err := validatePath(cfg.TempDir); err != nil {
			errs = append(errs, &PathError{Field: KeyTempDir, Path: cfg.TempDir, Err: err})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// PathError represents an error for a specific path field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}
