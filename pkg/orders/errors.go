package orders

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no order matches the id or number.
var ErrNotFound = errors.New("order not found")

// FieldError rejects one field of a draft or patch.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// StorageError wraps a backend failure.
type StorageError struct {
	Backend   string // "memory", "sqlite", "postgres"
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("order storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
