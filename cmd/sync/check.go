package main

import (
	"github.com/spf13/cobra"

	"github.com/riskibarqy/football-sync/internal/app"
	"github.com/riskibarqy/football-sync/internal/observability"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Look up the tracked team at every provider and report which ones answer",
		Long: `check calls each provider's team lookup once, using the configured API keys
and rate limits, and prints one result per provider. No database is opened.
The exit code is 1 when any provider fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(app.Options{DryRun: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, span := observability.StartCommand(cmd.Context(), "check")
			defer span.End()

			checks, err := rt.app.Sync.CheckSources(ctx)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), checks); err != nil {
				return err
			}
			for _, c := range checks {
				if !c.OK {
					return exitError{code: 1}
				}
			}
			return nil
		},
	}
}
