package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups for entities that do not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput marks requests the domain layer refuses to act on.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed marks entities that failed their own checks.
	ErrValidationFailed = errors.New("validation failed")

	// ErrQuotaExceeded marks a monthly feature quota that is used up.
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
)

// ValidationError carries the field that failed validation alongside
// the reason.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
