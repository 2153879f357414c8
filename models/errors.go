package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by every store function. Handlers map them onto HTTP
// statuses with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// ErrInvalidTransition is a conflict: the booking is in a state that
	// does not allow the requested status.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
)

// Error carries a client-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return newError(ErrNotFound, "%s not found", what)
}
