package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"servicedesk/internal/repairmeta"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:         "notes",
		Short:       "Decode or rewrite a notes value read from stdin",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	notesCmd.AddCommand(newNotesDecodeCommand(ctx))
	notesCmd.AddCommand(newNotesEncodeCommand())

	return notesCmd
}

type decodedNotes struct {
	CleanText string           `json:"cleanText"`
	Meta      *repairmeta.Meta `json:"meta"`
}

func newNotesDecodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "Split notes into clean text and the repair payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read notes: %w", err)
			}
			clean, meta := repairmeta.Decode(string(notes))
			if ctx.jsonOutput() {
				return writeJSON(cmd, decodedNotes{CleanText: clean, Meta: meta})
			}
			out := cmd.OutOrStdout()
			if clean != "" {
				fmt.Fprintln(out, clean)
			}
			if meta == nil {
				if repairmeta.HasMarker(string(notes)) {
					fmt.Fprintln(out, "\n(payload line present but unreadable)")
				}
				return nil
			}
			fmt.Fprintln(out)
			return writeJSON(cmd, meta)
		},
	}
}

// patchDocument is the JSON form of repairmeta.Patch accepted by notes encode.
// Omitted or null fields are left unchanged; an empty array clears a list.
type patchDocument struct {
	Active         *bool                  `json:"active"`
	TechnicianID   *string                `json:"technicianId"`
	TechnicianName *string                `json:"technicianName"`
	Operations     []string               `json:"operations"`
	ImageURL       *string                `json:"imageUrl"`
	Note           *string                `json:"note"`
	SpareParts     []repairmeta.SparePart `json:"spareParts"`
	LaborCost      *float64               `json:"laborCost"`
	PartsCost      *float64               `json:"partsCost"`
	TotalCost      *float64               `json:"totalCost"`
	Status         *string                `json:"status"`
}

func parsePatchDocument(raw string) (repairmeta.Patch, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc patchDocument
	if err := dec.Decode(&doc); err != nil {
		return repairmeta.Patch{}, usageError("notes encode", fmt.Sprintf("parse --patch: %v", err))
	}
	patch := repairmeta.Patch{
		Active:         doc.Active,
		TechnicianID:   doc.TechnicianID,
		TechnicianName: doc.TechnicianName,
		Operations:     doc.Operations,
		ImageURL:       doc.ImageURL,
		Note:           doc.Note,
		SpareParts:     doc.SpareParts,
		LaborCost:      doc.LaborCost,
		PartsCost:      doc.PartsCost,
		TotalCost:      doc.TotalCost,
	}
	if doc.Status != nil {
		status, ok := repairmeta.ParseStatus(*doc.Status)
		if !ok {
			return repairmeta.Patch{}, usageError("notes encode", fmt.Sprintf("unknown repair status %q", *doc.Status))
		}
		patch.Status = &status
	}
	return patch, nil
}

func newNotesEncodeCommand() *cobra.Command {
	var patchFlag string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Merge a JSON patch into the repair payload and print the new notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parsePatchDocument(patchFlag)
			if err != nil {
				return err
			}
			notes, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read notes: %w", err)
			}
			updated := repairmeta.Upsert(string(bytes.TrimSpace(notes)), patch)
			fmt.Fprintln(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&patchFlag, "patch", "{}", "JSON object with the payload fields to change")
	return cmd
}
