package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrMissingName, ExitUser),
			want: "name is required",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(fmt.Errorf("loading config: %w", ErrInvalidConfig), ExitUser),
			want: "loading config: invalid configuration",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExitError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	err := NewSystemError(fmt.Errorf("reading: %w", ErrInvalidConfig), "check permissions")
	if !Is(err, ErrInvalidConfig) {
		t.Error("expected ExitError to unwrap to ErrInvalidConfig")
	}
	if err.Suggestion != "check permissions" {
		t.Errorf("Suggestion = %q, want %q", err.Suggestion, "check permissions")
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindDirectory, "directory"},
		{KindNotFound, "not found"},
		{KindDelete, "delete"},
		{KindFormat, "format"},
		{KindVersionIncompatible, "version incompatible"},
		{KindImport, "import"},
		{Kind(99), "kind(99)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain error", stderrors.New("boom"), KindUnknown},
		{"direct", E(KindFormat, "bad zip"), KindFormat},
		{"wrapped by fmt", fmt.Errorf("importing: %w", E(KindNotFound, "missing")), KindNotFound},
		{"wrapped by Wrap", Wrap(E(KindDelete, "locked"), "deleting"), KindDelete},
		{"import failure", ImportFailure("import failed", stderrors.New("disk full")), KindImport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImportFailure_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := ImportFailure("there was an error handling your zip import file", cause)

	if !Is(err, cause) {
		t.Error("import failure should unwrap to its cause")
	}
	if got, want := err.Error(), "there was an error handling your zip import file: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := Wrap(E(KindFormat, "not a valid export"), "importing")

	if !Is(err, &Error{Kind: KindFormat}) {
		t.Error("expected match on kind alone")
	}
	if Is(err, &Error{Kind: KindImport}) {
		t.Error("unexpected match on a different kind")
	}
	if Is(err, &Error{Kind: KindFormat, Msg: "other"}) {
		t.Error("unexpected match on a different message")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"explicit exit error", NewUserError(stderrors.New("x"), ""), ExitUser},
		{"not found", E(KindNotFound, "missing"), ExitUser},
		{"format", E(KindFormat, "bad"), ExitUser},
		{"version", E(KindVersionIncompatible, "old"), ExitUser},
		{"directory", E(KindDirectory, "mkdir"), ExitSystem},
		{"delete", E(KindDelete, "locked"), ExitSystem},
		{"import", ImportFailure("failed", stderrors.New("io")), ExitSystem},
		{"untagged", stderrors.New("boom"), ExitSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
