package repairmeta

import (
	"bytes"
	"encoding/json"
	"math"
)

type rawObject map[string]json.RawMessage

// parsePayload decodes a marker payload leniently. Only a JSON object is
// accepted; individual fields with an unexpected type fall back to their
// defaults instead of failing the whole payload.
func parsePayload(payload string) (Meta, bool) {
	obj, ok := decodeObject([]byte(payload))
	if !ok {
		return Meta{}, false
	}

	meta := Default()
	meta.Active = obj.boolOr("active", true)
	meta.TechnicianID = obj.string("technicianId")
	meta.TechnicianName = obj.string("technicianName")
	meta.Operations = obj.strings("operations")
	meta.ImageURL = obj.string("imageUrl")
	meta.Note = obj.string("note")
	meta.SpareParts = obj.spareParts("spareParts")
	meta.LaborCost = obj.number("laborCost")
	meta.PartsCost = obj.number("partsCost")
	meta.TotalCost = obj.number("totalCost")
	if status := obj.string("status"); status != "" {
		meta.Status = Status(status)
	}
	meta.History = obj.history("history")
	meta.UpdatedAt = obj.string("updatedAt")
	return meta, true
}

func decodeObject(data []byte) (rawObject, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func (o rawObject) present(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (o rawObject) boolOr(key string, fallback bool) bool {
	raw, ok := o.present(key)
	if !ok {
		return fallback
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback
	}
	return v
}

func (o rawObject) string(key string) string {
	raw, ok := o.present(key)
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}

func (o rawObject) number(key string) float64 {
	raw, ok := o.present(key)
	if !ok {
		return 0
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

func (o rawObject) array(key string) []json.RawMessage {
	raw, ok := o.present(key)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func (o rawObject) strings(key string) []string {
	items := o.array(key)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, elementString(item))
	}
	return out
}

func (o rawObject) spareParts(key string) []SparePart {
	items := o.array(key)
	out := make([]SparePart, 0, len(items))
	for _, item := range items {
		part := SparePart{}
		if obj, ok := decodeObject(item); ok {
			part.Name = obj.string("name")
			part.Quantity = obj.quantity("quantity")
			part.UnitCost = obj.number("unitCost")
		}
		out = append(out, part)
	}
	return out
}

// maxQuantity bounds stored part quantities; anything outside [0, maxQuantity]
// is treated like a wrong-typed field.
const maxQuantity = math.MaxInt32

func (o rawObject) quantity(key string) int {
	v := math.Trunc(o.number(key))
	if v < 0 || v > maxQuantity {
		return 0
	}
	return int(v)
}

// history keeps each stored element as raw JSON next to its readable fields.
// Elements that are not objects surface their text in Note.
func (o rawObject) history(key string) []HistoryEntry {
	items := o.array(key)
	out := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		entry := HistoryEntry{Operations: []string{}, raw: bytes.TrimSpace(item)}
		if obj, ok := decodeObject(item); ok {
			entry.At = obj.string("at")
			entry.Action = obj.string("action")
			entry.TechnicianName = obj.string("technicianName")
			entry.Operations = obj.strings("operations")
			entry.Note = obj.string("note")
			entry.LaborCost = obj.number("laborCost")
			entry.PartsCost = obj.number("partsCost")
			entry.TotalCost = obj.number("totalCost")
		} else {
			entry.Note = elementString(item)
		}
		out = append(out, entry)
	}
	return out
}

// elementString keeps string elements verbatim and falls back to the raw
// JSON text for anything else.
func elementString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
