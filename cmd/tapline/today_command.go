package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tapline/internal/civiltime"
)

func newTodayCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's attendance activity",
		Long: "Shows the backend's reconciled attendance for the current civil day " +
			"when reachable, or the locally queued scans when offline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				entries, err := env.captureService(runCtx).RecentScans(runCtx, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no activity recorded today")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					timeOfDay, _ := civiltime.Clock(entry.At)
					status := "synced"
					if entry.Pending {
						status = "pending"
					}
					rows = append(rows, []string{
						entry.Name,
						entry.BadgeID,
						string(entry.Action),
						timeOfDay,
						status,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Name", "Badge", "Action", "Time", "Status"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of rows to show")
	return cmd
}
