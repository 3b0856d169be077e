package cargo

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a cargo record.
type Status string

const (
	StatusReceived  Status = "received"
	StatusInRepair  Status = "in_repair"
	StatusRepaired  Status = "repaired"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusReceived,
	StatusInRepair,
	StatusRepaired,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input (any case, dashes or underscores) to a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	status := Status(normalized)
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether no further work is expected for the record.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Record is a persisted cargo entry.
type Record struct {
	ID             int64     `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	CustomerName   string    `json:"customer_name,omitempty"`
	Device         string    `json:"device,omitempty"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewRecord carries the fields accepted when registering incoming cargo.
type NewRecord struct {
	TrackingNumber string
	CustomerName   string
	Device         string
	Notes          string
}

func (n NewRecord) normalized() (NewRecord, error) {
	n.TrackingNumber = strings.ToUpper(strings.TrimSpace(n.TrackingNumber))
	n.CustomerName = strings.TrimSpace(n.CustomerName)
	n.Device = strings.TrimSpace(n.Device)
	n.Notes = strings.TrimSpace(n.Notes)
	if n.TrackingNumber == "" {
		return n, invalid("tracking number is required")
	}
	if strings.ContainsAny(n.TrackingNumber, " \t\r\n/") {
		return n, invalid(fmt.Sprintf("tracking number %q must not contain whitespace or slashes", n.TrackingNumber))
	}
	return n, nil
}
