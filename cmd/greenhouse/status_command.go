package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"greenhouse/internal/config"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
	"greenhouse/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show generation coverage, queue counts, and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				report, err := status.NewAggregator(store, plantStore).GenerationStatus(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorized := shouldColorize(out)

				fmt.Fprintln(out, renderSectionHeader("Plants", colorized))
				fmt.Fprintf(out, "  Total:          %d\n", report.Plants.Plants)
				fmt.Fprintf(out, "  With all images: %d\n", report.Plants.WithAllImages)
				fmt.Fprintf(out, "  Without images:  %d\n", report.Plants.WithoutImages)
				fmt.Fprintln(out)

				fmt.Fprintln(out, renderSectionHeader("Queue", colorized))
				rows := [][]string{
					{colorize("pending", ansiBlue, colorized), strconv.Itoa(report.Queue.Pending)},
					{colorize("processing", ansiYellow, colorized), strconv.Itoa(report.Queue.Processing)},
					{colorize("completed", ansiGreen, colorized), strconv.Itoa(report.Queue.Completed)},
					{colorize("failed", ansiRed, colorized), strconv.Itoa(report.Queue.Failed)},
				}
				fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

				if len(report.Activity) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderSectionHeader("Recent activity", colorized))
					for _, entry := range report.Activity {
						fmt.Fprintf(out, "  %s  %s\n", formatTimestamp(entry.When), entry.Message)
					}
				}
				return nil
			})
		},
	}
}
