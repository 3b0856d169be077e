package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"servicedesk/internal/cargo"
	"servicedesk/internal/photostore"
	"servicedesk/internal/repair"
	"servicedesk/internal/repairmeta"
	"servicedesk/internal/services"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Record repair work on cargo",
	}

	repairCmd.AddCommand(newRepairOpenCommand(ctx))
	repairCmd.AddCommand(newRepairUpdateCommand(ctx, "progress", "Record progress on an active repair", (*repair.Service).Progress))
	repairCmd.AddCommand(newRepairUpdateCommand(ctx, "complete", "Complete an active repair", (*repair.Service).Complete))
	repairCmd.AddCommand(newRepairPhotoCommand(ctx))
	repairCmd.AddCommand(newRepairHistoryCommand(ctx))
	repairCmd.AddCommand(newRepairNoteCommand(ctx))

	return repairCmd
}

// runRepair runs fn against the cargo named by target and prints the view.
func runRepair(cmd *cobra.Command, ctx *commandContext, target string, opts []repair.Option,
	fn func(context.Context, *repair.Service, int64) (repair.View, error),
) error {
	return ctx.withStore(cmd.Context(), func(store *cargo.Store) error {
		id, err := resolveCargoID(cmd.Context(), store, target)
		if err != nil {
			return err
		}
		svc, err := ctx.newService(store, opts...)
		if err != nil {
			return err
		}
		view, err := fn(cmd.Context(), svc, id)
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
}

func newRepairOpenCommand(ctx *commandContext) *cobra.Command {
	var input repair.OpenInput

	cmd := &cobra.Command{
		Use:   "open <id|tracking>",
		Short: "Open a repair on a cargo record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, ctx, args[0], nil, func(c context.Context, svc *repair.Service, id int64) (repair.View, error) {
				return svc.Open(c, id, input)
			})
		},
	}

	cmd.Flags().StringVar(&input.TechnicianName, "technician", "", "Technician name (defaults to repair.default_technician)")
	cmd.Flags().StringVar(&input.TechnicianID, "technician-id", "", "Technician identifier")
	cmd.Flags().StringArrayVar(&input.Operations, "op", nil, "Planned operation (repeatable)")
	cmd.Flags().StringVar(&input.Note, "note", "", "Opening note")
	return cmd
}

type updateFunc func(*repair.Service, context.Context, int64, repair.UpdateInput) (repair.View, error)

func newRepairUpdateCommand(ctx *commandContext, use, short string, apply updateFunc) *cobra.Command {
	var flags updateFlags

	cmd := &cobra.Command{
		Use:   use + " <id|tracking>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input(cmd, "repair "+use)
			if err != nil {
				return err
			}
			return runRepair(cmd, ctx, args[0], nil, func(c context.Context, svc *repair.Service, id int64) (repair.View, error) {
				return apply(svc, c, id, input)
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newRepairPhotoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <id|tracking> <file>",
		Short: "Attach a photo to the repair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := args[1]
			file, err := os.Open(path)
			if err != nil {
				return usageError("repair photo", fmt.Sprintf("open photo: %v", err))
			}
			defer file.Close()

			photos, err := photostore.New(cmd.Context(), cfg)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "repair photo", "photo store", err)
			}
			opts := []repair.Option{repair.WithPhotoStore(photos)}
			return runRepair(cmd, ctx, args[0], opts, func(c context.Context, svc *repair.Service, id int64) (repair.View, error) {
				return svc.AttachPhoto(c, id, filepath.Base(path), file)
			})
		},
	}
}

func newRepairHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id|tracking>",
		Short: "Show the repair history of a cargo record",
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
				history := []repairmeta.HistoryEntry{}
				if view.Meta != nil && view.Meta.History != nil {
					history = view.Meta.History
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, history)
				}
				out := cmd.OutOrStdout()
				if len(history) == 0 {
					fmt.Fprintf(out, "No repair history for cargo %d\n", id)
					return nil
				}
				fmt.Fprintln(out, historyTable(history))
				return nil
			})
		},
	}
}

func newRepairNoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "note <id|tracking> <text>",
		Short: "Append a line to the cargo notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, ctx, args[0], nil, func(c context.Context, svc *repair.Service, id int64) (repair.View, error) {
				return svc.AddNote(c, id, args[1])
			})
		},
	}
}
