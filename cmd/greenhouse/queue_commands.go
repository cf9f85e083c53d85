package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"greenhouse/internal/config"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
	"greenhouse/internal/scheduler"
	"greenhouse/internal/status"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueRetryStuckCommand(ctx))
	queueCmd.AddCommand(newQueueCleanupCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var kindFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items with their dispatch positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var wantStatus queue.Status
			if statusFilter != "" {
				parsed, ok := queue.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("invalid status %q (valid: %s)", statusFilter, joinStatuses(queue.AllStatuses()))
				}
				wantStatus = parsed
			}
			var wantKind queue.Kind
			if kindFilter != "" {
				parsed, ok := queue.ParseKind(kindFilter)
				if !ok {
					return fmt.Errorf("invalid kind %q (valid: %s)", kindFilter, joinKinds(queue.AllKinds()))
				}
				wantKind = parsed
			}

			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				report, err := status.NewAggregator(store, plantStore).QueueStatus(cmd.Context())
				if err != nil {
					return err
				}

				colorized := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(report.Entries))
				for _, entry := range report.Entries {
					if wantStatus != "" && entry.Status != wantStatus {
						continue
					}
					if wantKind != "" && entry.Kind != wantKind {
						continue
					}
					position := "-"
					if entry.Position > 0 {
						position = strconv.Itoa(entry.Position)
					}
					detail := entry.Progress
					if entry.Status.IsTerminal() {
						detail = entry.ResultPath
						if entry.Status == queue.StatusFailed {
							detail = entry.ErrorMessage
						}
					}
					rows = append(rows, []string{
						strconv.FormatInt(entry.ID, 10),
						orDash(entry.PlantName),
						string(entry.Kind),
						colorize(string(entry.Status), colorForItemStatus(entry.Status), colorized),
						position,
						formatOptionalTime(entry.ScheduledFor),
						orDash(detail),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching work items")
					return nil
				}
				out := renderTable(
					[]string{"ID", "Plant", "Kind", "Status", "Pos", "Scheduled", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show items with this status")
	cmd.Flags().StringVar(&kindFilter, "kind", "", "Only show items producing this image kind")
	return cmd
}

func joinStatuses(statuses []queue.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func joinKinds(kinds []queue.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Delete a single work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no work item with id %d", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed work item %d\n", id)
				return nil
			})
		},
	}
}

func newQueueRetryStuckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry-stuck",
		Short: "Requeue items stuck in processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				sched := scheduler.New(cfg, store, plantStore, nil, nil)
				requeued, err := sched.RetryStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d stuck items\n", requeued)
				return nil
			})
		},
	}
}

func newQueueCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old completed and failed items beyond the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				sched := scheduler.New(cfg, store, plantStore, nil, nil)
				removed, err := sched.CleanupOld(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old items\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all completed and failed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				sched := scheduler.New(cfg, store, plantStore, nil, nil)
				removed, err := sched.ClearCompletedAndFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d terminal items\n", removed)
				return nil
			})
		},
	}
}
