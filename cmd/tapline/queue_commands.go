package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage queued scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueCountCommand(ctx))
	cmd.AddCommand(newQueueDropCommand(ctx))
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scans waiting for sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				events, err := env.queue.ListUnsynced(runCtx)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(events))
				for _, event := range events {
					name := event.BadgeID
					if profile, err := env.roster.LookupByBadge(runCtx, event.BadgeID); err == nil && profile != nil {
						name = profile.DisplayName()
					}
					rows = append(rows, []string{
						event.ID,
						event.BadgeID,
						name,
						string(event.Action),
						event.CapturedAt.UTC().Format(time.RFC3339),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Badge", "Name", "Action", "Captured"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newQueueCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of scans waiting for sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				count, err := env.queue.Count(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d pending\n", count)
				return nil
			})
		},
	}
}

func newQueueDropCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drop ID [ID...]",
		Short: "Discard queued scans without submitting them",
		Long: "Removes queued scans by id. Useful for events the backend can never " +
			"accept, such as a departure recorded for a day with no arrival.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				for _, id := range args {
					if err := env.queue.Delete(runCtx, id); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %d event(s)\n", len(args))
				return nil
			})
		},
	}
}
