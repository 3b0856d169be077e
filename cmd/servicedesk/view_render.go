package main

import (
	"fmt"
	"strconv"
	"strings"

	"servicedesk/internal/repair"
	"servicedesk/internal/repairmeta"
)

func formatMoney(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func renderView(view repair.View, colorize bool) string {
	var b strings.Builder
	record := view.Record
	fmt.Fprintf(&b, "Cargo %d (%s)\n", record.ID, record.TrackingNumber)
	writeField(&b, "Customer", record.CustomerName)
	writeField(&b, "Device", record.Device)
	writeField(&b, "Status", cargoStatusLabel(record.Status, colorize))
	writeField(&b, "Updated", record.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	if view.CleanText != "" {
		b.WriteString("\nNotes:\n")
		for _, line := range strings.Split(view.CleanText, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	meta := view.Meta
	if meta == nil {
		b.WriteString("\nNo repair recorded\n")
		return b.String()
	}
	b.WriteString("\nRepair:\n")
	writeField(&b, "State", repairStatusLabel(meta, colorize)+activeSuffix(meta.Active))
	writeField(&b, "Technician", technicianLabel(meta.TechnicianName, meta.TechnicianID))
	writeField(&b, "Operations", strings.Join(meta.Operations, ", "))
	writeField(&b, "Note", meta.Note)
	writeField(&b, "Photo", meta.ImageURL)
	writeField(&b, "Labor", formatMoney(meta.LaborCost))
	writeField(&b, "Parts", formatMoney(meta.PartsCost))
	writeField(&b, "Total", formatMoney(meta.TotalCost))
	writeField(&b, "Updated", meta.UpdatedAt)
	if len(meta.SpareParts) > 0 {
		b.WriteString(partsTable(meta.SpareParts))
		b.WriteString("\n")
	}
	if n := len(meta.History); n > 0 {
		fmt.Fprintf(&b, "  %d history entries (see `servicedesk repair history %d`)\n", n, record.ID)
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %-11s %s\n", label+":", value)
}

func activeSuffix(active bool) string {
	if active {
		return ""
	}
	return " (closed)"
}

func technicianLabel(name, id string) string {
	switch {
	case name != "" && id != "":
		return fmt.Sprintf("%s (%s)", name, id)
	case name != "":
		return name
	default:
		return id
	}
}

func partsTable(parts []repairmeta.SparePart) string {
	rows := make([][]string, 0, len(parts))
	var total float64
	for _, part := range parts {
		rows = append(rows, []string{
			part.Name,
			strconv.Itoa(part.Quantity),
			formatMoney(part.UnitCost),
			formatMoney(part.Total()),
		})
		total += part.Total()
	}
	return tableSpec{
		headers: []string{"Part", "Qty", "Unit", "Line total"},
		rows:    rows,
		footer:  []string{"", "", "Parts", formatMoney(total)},
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	}.render()
}

func historyTable(entries []repairmeta.HistoryEntry) string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		at := entry.At
		if ts, ok := repairmeta.ParseTimestamp(entry.At); ok {
			at = ts.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			at,
			entry.Action,
			entry.TechnicianName,
			strings.Join(entry.Operations, ", "),
			formatMoney(entry.TotalCost),
			entry.Note,
		})
	}
	return tableSpec{
		headers: []string{"#", "When", "Action", "Technician", "Operations", "Total", "Note"},
		rows:    rows,
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	}.render()
}
