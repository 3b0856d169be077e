package repairmeta

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Status is the repair workflow phase stored in the notes payload.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var allStatuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	return slices.Clone(allStatuses)
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	normalized = Status(strings.ReplaceAll(string(normalized), "-", "_"))
	if slices.Contains(allStatuses, normalized) {
		return normalized, true
	}
	return "", false
}

// TimestampLayout matches the millisecond ISO-8601 form used for updatedAt
// and history timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and any RFC 3339 variant.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SparePart is one spare part line consumed by a repair.
type SparePart struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unitCost"`
}

// Total returns quantity × unit cost.
func (p SparePart) Total() float64 {
	return float64(p.Quantity) * p.UnitCost
}

// HistoryEntry records one past repair event. Entries are never edited once
// appended: an entry obtained from Decode encodes as the exact JSON it was
// read from, including fields not listed here and elements that are not
// objects. Changing the fields of a decoded entry has no effect on encoding.
type HistoryEntry struct {
	At             string   `json:"at"`
	Action         string   `json:"action"`
	TechnicianName string   `json:"technicianName,omitempty"`
	Operations     []string `json:"operations"`
	Note           string   `json:"note"`
	LaborCost      float64  `json:"laborCost"`
	PartsCost      float64  `json:"partsCost"`
	TotalCost      float64  `json:"totalCost"`

	raw json.RawMessage
}

type historyEntryFields HistoryEntry

func (e HistoryEntry) stored() bool {
	return len(e.raw) > 0
}

// MarshalJSON writes stored entries verbatim and new entries field by field.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	if e.stored() {
		return e.raw, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(historyEntryFields(e)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Meta is the repair state embedded in a notes field. Field names and order
// are part of the stored format.
type Meta struct {
	Active         bool           `json:"active"`
	TechnicianID   string         `json:"technicianId,omitempty"`
	TechnicianName string         `json:"technicianName,omitempty"`
	Operations     []string       `json:"operations"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Note           string         `json:"note"`
	SpareParts     []SparePart    `json:"spareParts"`
	LaborCost      float64        `json:"laborCost"`
	PartsCost      float64        `json:"partsCost"`
	TotalCost      float64        `json:"totalCost"`
	Status         Status         `json:"status"`
	History        []HistoryEntry `json:"history"`
	UpdatedAt      string         `json:"updatedAt,omitempty"`
}

// Default returns the state attached when a repair is first opened.
func Default() Meta {
	return Meta{
		Active:     true,
		Operations: []string{},
		SpareParts: []SparePart{},
		Status:     StatusPending,
		History:    []HistoryEntry{},
	}
}

// PartsTotal sums quantity × unit cost across all spare part lines.
func (m Meta) PartsTotal() float64 {
	var total float64
	for _, part := range m.SpareParts {
		total += part.Total()
	}
	return total
}

// Clone returns a deep copy so callers can mutate slices freely.
func (m Meta) Clone() Meta {
	out := m
	out.Operations = cloneStrings(m.Operations)
	out.SpareParts = slices.Clone(m.SpareParts)
	if out.SpareParts == nil {
		out.SpareParts = []SparePart{}
	}
	out.History = make([]HistoryEntry, len(m.History))
	for i, entry := range m.History {
		entry.Operations = cloneStrings(entry.Operations)
		out.History[i] = entry
	}
	return out
}

// UpdatedTime parses UpdatedAt.
func (m Meta) UpdatedTime() (time.Time, bool) {
	return ParseTimestamp(m.UpdatedAt)
}

// normalizeSlices guarantees the arrays are serialized as [] and never null.
func (m *Meta) normalizeSlices() {
	if m.Operations == nil {
		m.Operations = []string{}
	}
	if m.SpareParts == nil {
		m.SpareParts = []SparePart{}
	}
	if m.History == nil {
		m.History = []HistoryEntry{}
	}
	for i := range m.History {
		if m.History[i].Operations == nil {
			m.History[i].Operations = []string{}
		}
	}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
