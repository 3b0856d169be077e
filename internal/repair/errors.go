package repair

import (
	"fmt"

	"servicedesk/internal/services"
)

var (
	// ErrNoActiveRepair is returned by Progress and Complete when the notes
	// carry no active repair.
	ErrNoActiveRepair = fmt.Errorf("%w: no active repair", services.ErrConflict)
	// ErrRepairActive is returned by Open while an earlier repair is still open.
	ErrRepairActive = fmt.Errorf("%w: repair already active", services.ErrConflict)
	// ErrCargoClosed is returned by Open for delivered or cancelled cargo.
	ErrCargoClosed = fmt.Errorf("%w: cargo is closed", services.ErrConflict)
	// ErrLockBusy is returned when another process holds the repair lock past the timeout.
	ErrLockBusy = fmt.Errorf("%w: repair lock busy", services.ErrConflict)
)

func invalid(operation, message string) error {
	return services.Wrap(services.ErrValidation, "repair", operation, message, nil)
}
