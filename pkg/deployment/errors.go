package deployment

import (
	"fmt"
)

// ValidationError is returned when a submission is rejected before anything is stored.
// Field names the first offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return "Unauthorized"
}

var ErrUnauthorized = &AuthorizationError{}

// StorageError signals that the source artifact could not be uploaded.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("upload artifact: %s", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError signals that a deployment record could not be read or written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AdapterError wraps anything that went wrong inside a platform publisher,
// including panics and timeouts.
type AdapterError struct {
	Platform Platform
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("publish to %s: %s", e.Platform, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
