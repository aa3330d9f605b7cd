package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrSummaryNotFound  = fmt.Errorf("%w: fit summary", ErrNotFound)
	ErrExposureNotFound = fmt.Errorf("%w: exposure", ErrNotFound)

	// Validation errors
	ErrTooFewResultants = errors.New("read pattern must have at least two resultants")
	ErrLengthMismatch   = errors.New("sequence length mismatch")
	ErrBufferMismatch   = errors.New("table buffer does not match read pattern length")
	ErrInvalidPattern   = errors.New("invalid read pattern")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewLengthMismatchError(field string, want, got int) error {
	return fmt.Errorf("%w: %s has length %d, want %d", ErrLengthMismatch, field, got, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrTooFewResultants) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrBufferMismatch) ||
		errors.Is(err, ErrInvalidPattern)
}
