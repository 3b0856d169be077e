package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"servicedesk/internal/repair"
	"servicedesk/internal/repairmeta"
)

// parsePart reads a --part value of the form name:qty:unit. The name may
// itself contain colons; quantity and unit cost are taken from the end.
func parsePart(value string) (repairmeta.SparePart, error) {
	fields := strings.Split(value, ":")
	if len(fields) < 3 {
		return repairmeta.SparePart{}, fmt.Errorf("part %q must look like name:qty:unit", value)
	}
	n := len(fields)
	name := strings.Join(fields[:n-2], ":")
	qty, err := strconv.Atoi(strings.TrimSpace(fields[n-2]))
	if err != nil {
		return repairmeta.SparePart{}, fmt.Errorf("part %q: quantity %q is not an integer", value, fields[n-2])
	}
	unit, err := strconv.ParseFloat(strings.TrimSpace(fields[n-1]), 64)
	if err != nil {
		return repairmeta.SparePart{}, fmt.Errorf("part %q: unit cost %q is not a number", value, fields[n-1])
	}
	return repairmeta.SparePart{Name: name, Quantity: qty, UnitCost: unit}, nil
}

// updateFlags binds the flags shared by repair progress and repair complete.
type updateFlags struct {
	action     string
	operations []string
	parts      []string
	clearParts bool
	labor      float64
	note       string
}

func (f *updateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.action, "action", "", "History action label")
	cmd.Flags().StringArrayVar(&f.operations, "op", nil, "Operation performed (repeatable, replaces the stored list)")
	cmd.Flags().StringArrayVar(&f.parts, "part", nil, "Spare part as name:qty:unit (repeatable, replaces the stored list)")
	cmd.Flags().BoolVar(&f.clearParts, "clear-parts", false, "Remove every stored spare part")
	cmd.Flags().Float64Var(&f.labor, "labor", 0, "Labor cost")
	cmd.Flags().StringVar(&f.note, "note", "", "Repair note")
}

// input converts the flags to an UpdateInput. Flags the user did not set
// leave the stored values untouched.
func (f *updateFlags) input(cmd *cobra.Command, operation string) (repair.UpdateInput, error) {
	input := repair.UpdateInput{Action: f.action}
	if cmd.Flags().Changed("op") {
		input.Operations = append([]string{}, f.operations...)
	}
	if f.clearParts && len(f.parts) > 0 {
		return input, usageError(operation, "--clear-parts cannot be combined with --part")
	}
	if f.clearParts {
		input.SpareParts = []repairmeta.SparePart{}
	}
	for _, value := range f.parts {
		part, err := parsePart(value)
		if err != nil {
			return input, usageError(operation, err.Error())
		}
		input.SpareParts = append(input.SpareParts, part)
	}
	if cmd.Flags().Changed("labor") {
		labor := f.labor
		input.LaborCost = &labor
	}
	if cmd.Flags().Changed("note") {
		note := f.note
		input.Note = &note
	}
	return input, nil
}
