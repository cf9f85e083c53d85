package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"greenhouse/internal/config"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

func newPlantCommand(ctx *commandContext) *cobra.Command {
	plantCmd := &cobra.Command{
		Use:   "plant",
		Short: "Manage catalog plants",
	}

	plantCmd.AddCommand(newPlantAddCommand(ctx))
	plantCmd.AddCommand(newPlantListCommand(ctx))
	plantCmd.AddCommand(newPlantShowCommand(ctx))
	plantCmd.AddCommand(newPlantRemoveCommand(ctx))

	return plantCmd
}

func newPlantAddCommand(ctx *commandContext) *cobra.Command {
	var species string
	var description string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a plant to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				plant, err := plantStore.Create(cmd.Context(), args[0], species, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added plant %d: %s\n", plant.ID, plant.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "Botanical species name")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description used in image prompts")
	return cmd
}

func newPlantListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog plants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				all, err := plantStore.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(all) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No plants in the catalog")
					return nil
				}

				colorized := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(all))
				for _, plant := range all {
					rows = append(rows, []string{
						strconv.FormatInt(plant.ID, 10),
						plant.Name,
						orDash(plant.Species),
						colorize(string(plant.ImageStatus), colorForPlantStatus(plant.ImageStatus), colorized),
						fmt.Sprintf("%d/%d", len(plant.ResultPaths()), len(queue.AllKinds())),
					})
				}
				out := renderTable(
					[]string{"ID", "Name", "Species", "Images", "Generated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newPlantShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one plant with its generation state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plant id %q", args[0])
			}
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				plant, err := plantStore.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if plant == nil {
					return plants.ErrNotFound
				}

				out := cmd.OutOrStdout()
				colorized := shouldColorize(out)
				fmt.Fprintf(out, "%s (id %d)\n", plant.Name, plant.ID)
				fmt.Fprintf(out, "  Species:      %s\n", orDash(plant.Species))
				fmt.Fprintf(out, "  Description:  %s\n", orDash(plant.Description))
				fmt.Fprintf(out, "  Image status: %s\n", colorize(string(plant.ImageStatus), colorForPlantStatus(plant.ImageStatus), colorized))
				if plant.ImageError != "" {
					fmt.Fprintf(out, "  Last error:   %s\n", plant.ImageError)
				}
				fmt.Fprintf(out, "  Attempts:     %d\n", plant.GenerationAttempts)
				fmt.Fprintf(out, "  Thumbnail:    %s\n", orDash(plant.ThumbnailPath))
				fmt.Fprintf(out, "  Full:         %s\n", orDash(plant.FullPath))
				fmt.Fprintf(out, "  Detail:       %s\n", orDash(plant.DetailPath))
				fmt.Fprintf(out, "  Created:      %s\n", formatTimestamp(plant.CreatedAt))

				items, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				var mine []*queue.Item
				for _, item := range items {
					if item.PlantID == plant.ID {
						mine = append(mine, item)
					}
				}
				if len(mine) > 0 {
					fmt.Fprintln(out, "  Work items:")
					for _, item := range mine {
						fmt.Fprintf(out, "    %-10s %s\n", item.Kind,
							colorize(string(item.Status), colorForItemStatus(item.Status), colorized))
					}
				}
				return nil
			})
		},
	}
}

func newPlantRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a plant from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plant id %q", args[0])
			}
			return ctx.withStores(func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error {
				removed, err := plantStore.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return plants.ErrNotFound
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed plant %d\n", id)
				return nil
			})
		},
	}
}
