package marshal

import (
	"errors"
	"fmt"
)

// Kind classifies a contract violation.
type Kind uint8

// Error kinds.
const (
	KindUndefined Kind = iota + 1
	KindWrongType
	KindBadValue
	KindNodeNotFound
)

// String returns the host-facing message for the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined argument."
	case KindWrongType:
		return "Wrong type for argument."
	case KindBadValue:
		return "Bad value for argument."
	case KindNodeNotFound:
		return "Couldn't find node."
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Error is a contract violation of a given kind.
type Error struct {
	Kind   Kind
	Detail string
}

// Sentinels for use with errors.Is.
var (
	ErrUndefined    = &Error{Kind: KindUndefined}
	ErrWrongType    = &Error{Kind: KindWrongType}
	ErrBadValue     = &Error{Kind: KindBadValue}
	ErrNodeNotFound = &Error{Kind: KindNodeNotFound}
)

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + " " + e.Detail
}

// Is matches any Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// contextError attaches the phrase naming the failing argument or phase.
type contextError struct {
	err    error
	phrase string
}

func (e *contextError) Error() string { return e.err.Error() + " " + e.phrase }

func (e *contextError) Unwrap() error { return e.err }

// WithContext annotates err with a phrase such as "Name argument.".
// A nil err stays nil.
func WithContext(err error, phrase string) error {
	if err == nil {
		return nil
	}
	return &contextError{err: err, phrase: phrase}
}

// ContextOf returns the outermost phrase attached with WithContext.
func ContextOf(err error) string {
	var c *contextError
	if errors.As(err, &c) {
		return c.phrase
	}
	return ""
}
