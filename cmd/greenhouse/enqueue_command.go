package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"greenhouse/internal/config"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
	"greenhouse/internal/scheduler"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var priority int

	cmd := &cobra.Command{
		Use:   "enqueue <plant-id>",
		Short: "Queue image generation for a plant",
		Long: "Queue one work item per image kind for the plant. Re-running replaces\n" +
			"any still-pending items instead of duplicating them. The running daemon\n" +
			"picks the batch up on its next poll.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plant id %q", args[0])
			}
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				// The scheduler is not started here; its Enqueue only writes
				// the batch and updates the plant. Dispatch happens in the
				// daemon process.
				sched := scheduler.New(cfg, store, plantStore, nil, nil)
				items, err := sched.Enqueue(cmd.Context(), id, priority)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d items for plant %d\n", len(items), id)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&priority, "priority", 0, "Dispatch priority, higher first")
	return cmd
}
