package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tapline/internal/capture"
	"tapline/internal/civiltime"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan BADGE [BADGE...]",
		Short: "Record badge scans",
		Long: "Records one attendance event per badge. When the backend is reachable " +
			"the scan is submitted immediately; otherwise it is queued locally and " +
			"flushed on the next sync.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				service := env.captureService(runCtx)
				var failures int
				for _, badge := range args {
					result, err := service.Scan(runCtx, badge)
					if err != nil {
						failures++
						if errors.Is(err, capture.ErrUnknownBadge) {
							fmt.Fprintf(cmd.OutOrStdout(), "%s: badge not in roster\n", strings.TrimSpace(badge))
							continue
						}
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", strings.TrimSpace(badge), err)
						continue
					}

					timeOfDay, date := civiltime.Clock(result.CapturedAt)
					path := "submitted"
					if result.Queued {
						path = "queued"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s at %s on %s (%s)\n",
						result.Profile.BadgeID, result.Profile.DisplayName(), result.Action, timeOfDay, date, path)
				}
				if failures > 0 {
					return fmt.Errorf("%d of %d scans failed", failures, len(args))
				}
				return nil
			})
		},
	}
}
