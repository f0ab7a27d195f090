package tracking

import (
	"errors"
	"fmt"
)

// Sentinel errors for tracking operations.
var (
	ErrNotFound = errors.New("item not found")

	// ErrIDConflict is returned when creating an item whose id already
	// names an item of the other kind.
	ErrIDConflict = errors.New("id already used by another item")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
