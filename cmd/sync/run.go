package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/app"
	"github.com/riskibarqy/football-sync/internal/observability"
)

func newRunCommand() *cobra.Command {
	var (
		fromFlag     string
		toFlag       string
		entitiesFlag []string
		dryRunFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync cycle and print its report",
		Example: `  football-sync run                                  # last 7 days plus upcoming fixtures
  football-sync run --from 2025-08-01 --to 2025-08-31
  football-sync run --entities match,match_detail
  football-sync run --dry-run                        # fetch and reconcile without a database`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(app.Options{DryRun: dryRunFlag})
			if err != nil {
				return err
			}
			defer rt.Close()

			scope, err := buildScope(time.Now(), rt.cfg.Lookback, rt.cfg.Lookahead, fromFlag, toFlag, entitiesFlag)
			if err != nil {
				return err
			}

			ctx, span := observability.StartCommand(cmd.Context(), "run", attribute.Bool("sync.dry_run", dryRunFlag))
			defer span.End()

			report, err := rt.app.Sync.RunSync(ctx, scope)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if code := report.ExitCode(); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Start of the window (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&toFlag, "to", "", "End of the window (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringSliceVar(&entitiesFlag, "entities", nil,
		"Entity types to sync: team, player, match, match_detail, standing (default all)")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Use an empty in-memory store instead of Postgres")

	return cmd
}
