// Package errors provides error handling conventions for dbarchive.
//
// It re-exports the wrapping helpers of [github.com/cockroachdb/errors] so
// call sites import a single package, defines the tagged backup error kinds,
// and carries the [ExitError] type and exit codes used by the CLI.
//
// # Error Kinds
//
// Every failure surfaced by the backup core is an [*Error] tagged with a
// [Kind]:
//
//   - KindDirectory: the backup directory could not be created
//   - KindNotFound: the referenced snapshot does not exist
//   - KindDelete: deletion failed; a deferred deletion was registered
//   - KindFormat: archive or manifest does not have the required shape
//   - KindVersionIncompatible: manifest version is below the supported floor
//   - KindImport: any other import failure; wraps the original cause
//
// Use [KindOf] or [IsKind] to branch on the kind:
//
//	if errors.IsKind(err, errors.KindNotFound) {
//	    // treat as already deleted
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, bad archive, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, etc.)
//
// [ExitCode] maps any error, tagged or not, to one of these codes.
package errors
