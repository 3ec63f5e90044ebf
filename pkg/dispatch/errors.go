package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for lookup and registration failures.
var (
	// ErrNotFound is the base error for any missing action or result type.
	ErrNotFound = errors.New("dispatch: not found")

	// ErrDuplicate is the base error for conflicting registrations.
	ErrDuplicate = errors.New("dispatch: duplicate registration")
)

// NotFoundError reports a missing action path or result type name.
// It is fatal: the dispatcher surfaces it to the caller and never retries.
type NotFoundError struct {
	Kind string // "action" or "result type"
	Name string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dispatch: no such %s [%s]", e.Kind, e.Name)
}

// Unwrap makes the error match ErrNotFound with errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateError reports a second registration under an already-taken name
// or an exactly-equal action path. Registration fails; startup must not
// continue past it.
type DuplicateError struct {
	Kind string // "action", "interceptor", "interceptor stack", "result type" or "result"
	Name string
}

// Error returns the error message.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("dispatch: duplicate %s [%s]", e.Kind, e.Name)
}

// Unwrap makes the error match ErrDuplicate with errors.Is.
func (e *DuplicateError) Unwrap() error { return ErrDuplicate }
