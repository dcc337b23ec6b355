package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a domain failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidState
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Error is a domain failure the caller can act upon. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is reports whether target is an *Error of the same Kind and Message,
// so sentinel errors keep matching after being wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, format string, args []interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg}
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args)
}

func Forbidden(format string, args ...interface{}) error {
	return newError(KindForbidden, format, args)
}

func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, format, args)
}

func InvalidState(format string, args ...interface{}) error {
	return newError(KindInvalidState, format, args)
}

func BadRequest(format string, args ...interface{}) error {
	return newError(KindBadRequest, format, args)
}

// KindOf returns the Kind of the first *Error found in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

// NewShutdownError returns an error that makes the API server shut down gracefully.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
