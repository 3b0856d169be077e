package repair

import (
	"fmt"
	"math"
	"strings"

	"servicedesk/internal/repairmeta"
	"servicedesk/internal/textutil"
)

// OpenInput starts a repair.
type OpenInput struct {
	TechnicianID   string
	TechnicianName string
	Operations     []string
	Note           string
}

// UpdateInput carries the changes recorded by Progress and Complete. Nil
// slices and pointers keep the stored value.
type UpdateInput struct {
	Action     string
	Operations []string
	SpareParts []repairmeta.SparePart
	LaborCost  *float64
	Note       *string
}

func (in OpenInput) normalized(defaultTechnician string) OpenInput {
	in.TechnicianID = strings.TrimSpace(in.TechnicianID)
	in.TechnicianName = textutil.NormalizeLabel(in.TechnicianName)
	if in.TechnicianName == "" {
		in.TechnicianName = textutil.NormalizeLabel(defaultTechnician)
	}
	in.Operations = textutil.NormalizeLabels(in.Operations)
	if in.Operations == nil {
		in.Operations = []string{}
	}
	in.Note = strings.TrimSpace(in.Note)
	return in
}

func (in UpdateInput) normalized(operation string) (UpdateInput, error) {
	in.Action = textutil.NormalizeLabel(in.Action)
	in.Operations = textutil.NormalizeLabels(in.Operations)
	if in.LaborCost != nil {
		if err := checkAmount(operation, "labor cost", *in.LaborCost); err != nil {
			return in, err
		}
	}
	if in.Note != nil {
		note := strings.TrimSpace(*in.Note)
		in.Note = &note
	}
	if in.SpareParts != nil {
		parts := make([]repairmeta.SparePart, 0, len(in.SpareParts))
		for i, part := range in.SpareParts {
			part.Name = textutil.NormalizeLabel(part.Name)
			if part.Name == "" {
				return in, invalid(operation, fmt.Sprintf("spare part %d has no name", i+1))
			}
			if part.Quantity < 0 {
				return in, invalid(operation, fmt.Sprintf("spare part %q has negative quantity %d", part.Name, part.Quantity))
			}
			if err := checkAmount(operation, fmt.Sprintf("unit cost of %q", part.Name), part.UnitCost); err != nil {
				return in, err
			}
			parts = append(parts, part)
		}
		in.SpareParts = parts
	}
	return in, nil
}

func checkAmount(operation, label string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return invalid(operation, label+" must be a finite number")
	}
	if value < 0 {
		return invalid(operation, fmt.Sprintf("%s must not be negative (got %g)", label, value))
	}
	return nil
}

// checkNoteLine rejects human text that would be read back as a payload line.
func checkNoteLine(operation, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid(operation, "note text is empty")
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, repairmeta.Marker) {
			return "", invalid(operation, "note text must not start a line with "+repairmeta.Marker)
		}
	}
	return text, nil
}
