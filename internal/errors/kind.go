package errors

import "fmt"

// Kind classifies failures of the backup core.
type Kind int

// Error kinds. KindUnknown is returned by KindOf for untagged errors.
const (
	KindUnknown Kind = iota
	KindDirectory
	KindNotFound
	KindDelete
	KindFormat
	KindVersionIncompatible
	KindImport
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindDirectory:           "directory",
	KindNotFound:            "not found",
	KindDelete:              "delete",
	KindFormat:              "format",
	KindVersionIncompatible: "version incompatible",
	KindImport:              "import",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a tagged failure of the backup core.
// Msg is suitable for direct display to a user. Err is only set for
// KindImport, where it preserves the original cause for diagnostics.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind with an empty or equal message,
// so sentinel-style comparisons like errors.Is(err, &Error{Kind: KindFormat}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// E creates a tagged error of the given kind without a cause.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Ef creates a tagged error of the given kind with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ImportFailure wraps cause as a KindImport error.
func ImportFailure(msg string, cause error) *Error {
	return &Error{Kind: KindImport, Msg: msg, Err: WithStack(cause)}
}

// KindOf returns the kind of the first tagged error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err's chain contains a tagged error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
