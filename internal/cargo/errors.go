package cargo

import (
	"fmt"

	"servicedesk/internal/services"
)

var (
	// ErrNotFound is returned when no record matches the requested ID or tracking number.
	ErrNotFound = fmt.Errorf("%w: cargo record", services.ErrNotFound)
	// ErrDuplicateTracking is returned when a tracking number is already registered.
	ErrDuplicateTracking = fmt.Errorf("%w: tracking number already registered", services.ErrConflict)
)

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "cargo", "", message, nil)
}
