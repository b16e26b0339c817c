package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var flushOnly bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the roster cache and flush queued scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				out := cmd.OutOrStdout()

				if !flushOnly {
					siteID := env.settings.SiteID()
					if err := env.syncer.RefreshRoster(runCtx, siteID); err != nil {
						fmt.Fprintf(out, "roster refresh failed: %v\n", err)
					} else {
						count, err := env.roster.Count(runCtx)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "roster refreshed: %d records cached\n", count)
					}
				}

				result, err := env.syncer.FlushQueue(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "queue flush: %d processed, %d failed\n", result.Processed, result.Failed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&flushOnly, "flush-only", false, "Skip the roster refresh and only flush queued scans")
	return cmd
}
