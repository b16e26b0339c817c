package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSiteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Show or change the device's site assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active site id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				siteID := env.settings.SiteID()
				if siteID == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "no site assigned")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), siteID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set SITE_ID",
		Short: "Assign the device to a site",
		Long: "Changes the active site. The roster cache is cleared so badges from " +
			"the previous site no longer resolve; run `tapline sync` afterwards to " +
			"fetch the new site's roster.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnvironment(cmd.Context(), func(runCtx context.Context, env *environment) error {
				previous := env.settings.SiteID()
				if err := env.settings.SetSiteID(args[0]); err != nil {
					return err
				}
				if env.settings.SiteID() != previous {
					if err := env.roster.Clear(runCtx); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "site set to %s\n", env.settings.SiteID())
				return nil
			})
		},
	})

	return cmd
}
