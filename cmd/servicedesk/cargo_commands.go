package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"servicedesk/internal/cargo"
	"servicedesk/internal/repairmeta"
)

func newCargoCommand(ctx *commandContext) *cobra.Command {
	cargoCmd := &cobra.Command{
		Use:   "cargo",
		Short: "Register and inspect cargo records",
	}

	cargoCmd.AddCommand(newCargoAddCommand(ctx))
	cargoCmd.AddCommand(newCargoListCommand(ctx))
	cargoCmd.AddCommand(newCargoShowCommand(ctx))
	cargoCmd.AddCommand(newCargoStatusCommand(ctx))
	cargoCmd.AddCommand(newCargoRemoveCommand(ctx))

	return cargoCmd
}

func newCargoAddCommand(ctx *commandContext) *cobra.Command {
	var input cargo.NewRecord

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register incoming cargo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repairmeta.HasMarker(input.Notes) {
				return usageError("cargo add", "notes must not contain "+repairmeta.Marker+"; open a repair instead")
			}
			return ctx.withStore(cmd.Context(), func(store *cargo.Store) error {
				record, err := store.Create(cmd.Context(), input)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, record)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered cargo %d (%s)\n", record.ID, record.TrackingNumber)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.TrackingNumber, "tracking", "", "Carrier tracking number")
	cmd.Flags().StringVar(&input.CustomerName, "customer", "", "Customer name")
	cmd.Flags().StringVar(&input.Device, "device", "", "Device description")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "Initial notes")
	_ = cmd.MarkFlagRequired("tracking")
	return cmd
}

func newCargoListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cargo records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]cargo.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, ok := cargo.ParseStatus(value)
				if !ok {
					return usageError("cargo list", unknownStatusMessage(value))
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(cmd.Context(), func(store *cargo.Store) error {
				records, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if records == nil {
						records = []*cargo.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No cargo records")
					return nil
				}
				fmt.Fprintln(out, cargoTable(records, shouldColorize(out)))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func cargoTable(records []*cargo.Record, colorize bool) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		_, meta := repairmeta.Decode(record.Notes)
		total := "-"
		if meta != nil {
			total = formatMoney(meta.TotalCost)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", record.ID),
			record.TrackingNumber,
			record.CustomerName,
			record.Device,
			cargoStatusLabel(record.Status, colorize),
			repairStatusLabel(meta, colorize),
			total,
			record.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return tableSpec{
		headers: []string{"ID", "Tracking", "Customer", "Device", "Status", "Repair", "Total", "Updated"},
		rows:    rows,
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	}.render()
}

func newCargoShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|tracking>",
		Short: "Show a cargo record and its repair state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *cargo.Store) error {
				id, err := resolveCargoID(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				svc, err := ctx.newService(store)
				if err != nil {
					return err
				}
				view, err := svc.Show(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderView(view, shouldColorize(out)))
				return nil
			})
		},
	}
}

func newCargoStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id|tracking> <status>",
		Short: "Set the cargo status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := cargo.ParseStatus(args[1])
			if !ok {
				return usageError("cargo status", unknownStatusMessage(args[1]))
			}
			return ctx.withStore(cmd.Context(), func(store *cargo.Store) error {
				id, err := resolveCargoID(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if err := store.UpdateStatus(cmd.Context(), id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cargo %d is now %s\n", id, cargoStatusLabel(status, false))
				return nil
			})
		},
	}
}

func newCargoRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|tracking>",
		Short: "Delete a cargo record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *cargo.Store) error {
				id, err := resolveCargoID(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if err := store.Remove(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed cargo %d\n", id)
				return nil
			})
		},
	}
}

func unknownStatusMessage(value string) string {
	names := make([]string, 0, len(cargo.AllStatuses()))
	for _, status := range cargo.AllStatuses() {
		names = append(names, string(status))
	}
	return fmt.Sprintf("unknown status %q (expected one of %s)", value, strings.Join(names, ", "))
}
