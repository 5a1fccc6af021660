package main

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/football-sync/internal/app"
	"github.com/riskibarqy/football-sync/internal/observability"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func newScheduleCommand() *cobra.Command {
	var (
		scheduleFlag string
		runNowFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run sync cycles on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(app.Options{})
			if err != nil {
				return err
			}
			defer rt.Close()

			spec := rt.cfg.Schedule
			if scheduleFlag != "" {
				spec = scheduleFlag
			}

			ctx := cmd.Context()
			job := func() {
				scope, err := buildScope(time.Now(), rt.cfg.Lookback, rt.cfg.Lookahead, "", "", nil)
				if err != nil {
					rt.logger.Error("build scheduled scope", "error", err)
					return
				}
				rt.app.PurgeResponseCaches()
				tickCtx, span := observability.StartCommand(ctx, "schedule.tick")
				defer span.End()

				report, err := rt.app.Sync.RunSync(tickCtx, scope)
				switch {
				case errors.Is(err, usecase.ErrSyncInProgress):
					rt.logger.Warn("scheduled sync skipped", "reason", "previous run still in progress")
				case err != nil:
					rt.logger.Error("scheduled sync failed", "error", err)
				case report.ExitCode() != 0:
					rt.logger.Error("scheduled sync aborted",
						"run_id", report.RunID,
						"failed_step", string(report.FailedStep),
						"reason", report.FailureReason,
					)
				}
			}

			scheduler := cron.New(
				cron.WithLocation(time.UTC),
				cron.WithLogger(cronLogger{logger: rt.logger.Named("cron")}),
				cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: rt.logger.Named("cron")})),
			)
			if _, err := scheduler.AddFunc(spec, job); err != nil {
				return err
			}

			rt.logger.Info("scheduler started", "schedule", spec, "run_now", runNowFlag)
			scheduler.Start()
			if runNowFlag {
				go job()
			}

			<-ctx.Done()
			stopped := scheduler.Stop()
			waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			select {
			case <-stopped.Done():
			case <-waitCtx.Done():
				rt.logger.Warn("scheduler stop timed out")
			}
			rt.logger.Info("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleFlag, "cron", "", "Cron expression overriding SYNC_SCHEDULE")
	cmd.Flags().BoolVar(&runNowFlag, "run-now", false, "Run one cycle immediately before waiting for the schedule")

	return cmd
}

// cronLogger routes cron's own events into the service logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
