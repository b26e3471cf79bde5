package nifs

import (
	"errors"
	"fmt"
)

// Error kinds returned by the engine. Use errors.Is to test for them.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotEmpty         = errors.New("directory not empty")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalid          = errors.New("invalid argument")
)

// OpError records the failed operation and the node it targeted
type OpError struct {
	Op   string
	ID   uint64 // Parent id for name-based operations, node id otherwise
	Name string // Empty for id-based operations
	Err  error
}

func (e *OpError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %d/%q: %v", e.Op, e.ID, e.Name, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with operation context
func NewOpError(op string, id uint64, name string, err error) *OpError {
	return &OpError{Op: op, ID: id, Name: name, Err: err}
}
