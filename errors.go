package vectable

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSelector is returned when Find is called with zero or more
	// than one of its mutually-exclusive selector fields set.
	ErrInvalidSelector = errors.New("exactly one of Key, Keys, Row, Rows must be set")

	// ErrInvalidN is returned when a search asks for a non-positive number
	// of neighbors.
	ErrInvalidN = errors.New("n must be positive")
)

// ErrKeyNotFound indicates a direct vector read/write on an unmapped key.
type ErrKeyNotFound struct {
	Key uint64
}

func (e *ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key not found: %d", e.Key)
}

// ErrCapacityExhausted indicates an Add without explicit row when no free
// row remains. It reports the current shape for diagnostics; growth is the
// caller's responsibility via Resize.
type ErrCapacityExhausted struct {
	Rows int
	Dims int
}

func (e *ErrCapacityExhausted) Error() string {
	return fmt.Sprintf("no free rows left in table of shape (%d, %d)", e.Rows, e.Dims)
}

// ErrRowOutOfRange indicates a caller-directed row placement outside the
// current shape.
type ErrRowOutOfRange struct {
	Row  int
	Rows int
}

func (e *ErrRowOutOfRange) Error() string {
	return fmt.Sprintf("row %d out of range [0, %d)", e.Row, e.Rows)
}

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }
