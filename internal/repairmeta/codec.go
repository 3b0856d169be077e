package repairmeta

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Marker prefixes the single notes line that carries the JSON payload.
const Marker = "[[REPAIR_META]]"

// Codec decodes and re-encodes repair state in notes text. The zero value is
// not usable; construct with New. A Codec is safe for concurrent use.
type Codec struct {
	now func() time.Time
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Codec using the wall clock unless overridden.
func New(opts ...Option) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New()

// Decode splits notes into clean text and the embedded Meta using the default codec.
func Decode(notes string) (string, *Meta) { return defaultCodec.Decode(notes) }

// Upsert merges patch into the notes payload using the default codec.
func Upsert(notes string, patch Patch) string { return defaultCodec.Upsert(notes, patch) }

// AppendHistory appends entry to the notes payload using the default codec.
func AppendHistory(notes string, entry HistoryEntry, patch *Patch) string {
	return defaultCodec.AppendHistory(notes, entry, patch)
}

// Decode returns the human-authored text with every marker line removed and
// the last successfully parsed payload. Meta is nil when no marker line parses.
func (c *Codec) Decode(notes string) (string, *Meta) {
	text := strings.TrimSpace(notes)
	if !strings.Contains(text, Marker) {
		return text, nil
	}

	var (
		kept []string
		meta *Meta
	)
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, Marker) {
			kept = append(kept, line)
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, Marker))
		if parsed, ok := parsePayload(payload); ok {
			meta = &parsed
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), meta
}

// Upsert merges patch onto the existing payload, or onto Default when notes
// carry none, stamps updatedAt, and returns the re-encoded notes.
func (c *Codec) Upsert(notes string, patch Patch) string {
	clean, existing := c.Decode(notes)
	base := Default()
	if existing != nil {
		base = *existing
	}
	merged := patch.Apply(base)
	merged.UpdatedAt = FormatTimestamp(c.now())
	return Compose(clean, &merged)
}

// AppendHistory adds entry after every existing history entry and merges the
// optional patch in the same encode. Entries are stored without validation.
func (c *Codec) AppendHistory(notes string, entry HistoryEntry, patch *Patch) string {
	_, existing := c.Decode(notes)
	base := Default()
	if existing != nil {
		base = *existing
	}

	history := make([]HistoryEntry, 0, len(base.History)+1)
	history = append(history, base.History...)
	history = append(history, entry)

	var merged Patch
	if patch != nil {
		merged = *patch
	}
	merged.History = history
	return c.Upsert(notes, merged)
}

// Compose joins clean text and an encoded payload line. It does not touch
// timestamps; a nil meta yields the clean text alone.
func Compose(cleanText string, meta *Meta) string {
	segments := make([]string, 0, 2)
	if clean := strings.TrimSpace(cleanText); clean != "" {
		segments = append(segments, clean)
	}
	if meta != nil {
		if line, err := encodeLine(*meta); err == nil {
			segments = append(segments, line)
		}
	}
	return strings.Join(segments, "\n")
}

// HasMarker reports whether notes contain a payload line candidate, that is a
// line starting with Marker. A marker elsewhere in a line is ordinary text.
func HasMarker(notes string) bool {
	text := strings.TrimSpace(notes)
	if !strings.Contains(text, Marker) {
		return false
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, Marker) {
			return true
		}
	}
	return false
}

func encodeLine(meta Meta) (string, error) {
	meta = meta.Clone()
	meta.normalizeSlices()
	sanitizeNumbers(&meta)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return Marker + strings.TrimRight(buf.String(), "\n"), nil
}

// sanitizeNumbers replaces NaN and infinities, which JSON cannot carry, with 0.
func sanitizeNumbers(meta *Meta) {
	meta.LaborCost = finite(meta.LaborCost)
	meta.PartsCost = finite(meta.PartsCost)
	meta.TotalCost = finite(meta.TotalCost)
	for i := range meta.SpareParts {
		meta.SpareParts[i].UnitCost = finite(meta.SpareParts[i].UnitCost)
	}
	for i := range meta.History {
		meta.History[i].LaborCost = finite(meta.History[i].LaborCost)
		meta.History[i].PartsCost = finite(meta.History[i].PartsCost)
		meta.History[i].TotalCost = finite(meta.History[i].TotalCost)
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
