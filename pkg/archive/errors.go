package archive

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("archive record not found")

// StorageError wraps a backend failure with the backend and operation.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("archive %s: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func newStorageError(backend, op string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Err: err}
}
