// Package apperr is the error taxonomy the order engine speaks.  Each error
// carries a Kind sentinel so handlers can pick a status code with errors.Is
// without parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a classified failure with a client-safe message.
type Error struct {
	Kind error
	Msg  string
	Err  error // optional cause, not shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Is matches the Kind sentinel so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error   { return newf(ErrValidation, format, args...) }
func NotFound(format string, args ...any) *Error     { return newf(ErrNotFound, format, args...) }
func InvalidState(format string, args ...any) *Error { return newf(ErrInvalidState, format, args...) }
func Conflict(format string, args ...any) *Error     { return newf(ErrConflict, format, args...) }
func Unauthorized(format string, args ...any) *Error { return newf(ErrUnauthorized, format, args...) }

// Wrap attaches a cause to a classified error.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

// Message returns the client-facing message of a classified error, or ""
// when err is not one.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return ""
}
