package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// Precondition errors raised at the boundary, never inside a pass
	ErrEmptyDataset      = errors.New("dataset has no rows or no columns")
	ErrRowOutOfRange     = errors.New("row index out of range")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnknownCleanMode  = errors.New("unknown clean mode")
)

// NewNotFoundError wraps ErrNotFound with the resource and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewRowOutOfRangeError reports an edit or delta row outside the dataset
func NewRowOutOfRangeError(row, rowCount int) error {
	return fmt.Errorf("%w: row %d (dataset has %d rows)", ErrRowOutOfRange, row, rowCount)
}

// NewUnknownColumnError reports a column not present in the dataset header
func NewUnknownColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPreconditionError reports whether err is a caller-side precondition failure
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrRowOutOfRange) ||
		errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrUnknownCleanMode)
}
