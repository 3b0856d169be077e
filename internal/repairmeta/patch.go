package repairmeta

import "slices"

// Patch lists the Meta fields to change. A nil pointer leaves the scalar
// untouched. A nil slice keeps the existing slice, while a non-nil slice
// (including an empty one) replaces it wholesale; elements are never merged.
//
// UpdatedAt is not patchable; every encode stamps it with the codec clock.
type Patch struct {
	Active         *bool
	TechnicianID   *string
	TechnicianName *string
	Operations     []string
	ImageURL       *string
	Note           *string
	SpareParts     []SparePart
	LaborCost      *float64
	PartsCost      *float64
	TotalCost      *float64
	Status         *Status
	History        []HistoryEntry
}

// Ptr returns a pointer to v for building Patch literals.
func Ptr[T any](v T) *T {
	return &v
}

// Apply returns base with the patch merged onto it. base is not modified.
func (p Patch) Apply(base Meta) Meta {
	out := base.Clone()
	if p.Active != nil {
		out.Active = *p.Active
	}
	if p.TechnicianID != nil {
		out.TechnicianID = *p.TechnicianID
	}
	if p.TechnicianName != nil {
		out.TechnicianName = *p.TechnicianName
	}
	if p.Operations != nil {
		out.Operations = slices.Clone(p.Operations)
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.Note != nil {
		out.Note = *p.Note
	}
	if p.SpareParts != nil {
		out.SpareParts = slices.Clone(p.SpareParts)
	}
	if p.LaborCost != nil {
		out.LaborCost = *p.LaborCost
	}
	if p.PartsCost != nil {
		out.PartsCost = *p.PartsCost
	}
	if p.TotalCost != nil {
		out.TotalCost = *p.TotalCost
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.History != nil {
		out.History = make([]HistoryEntry, len(p.History))
		for i, entry := range p.History {
			entry.Operations = cloneStrings(entry.Operations)
			out.History[i] = entry
		}
	}
	out.normalizeSlices()
	return out
}
