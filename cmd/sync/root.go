package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/football-sync/internal/app"
	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/observability"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

// exitError carries a process exit code through cobra without printing a
// second error line.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "football-sync",
		Short:         "Ingest and reconcile Ipswich Town match data from TheSportsDB and Football-Data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newRunCommand(),
		newScheduleCommand(),
		newRemapCommand(),
		newHistoryCommand(),
		newCheckCommand(),
	)
	return cmd
}

// runtime is what every subcommand needs once config is loaded.
type runtime struct {
	cfg    config.Config
	logger *logging.Logger
	app    *app.App

	shutdownTracing observability.Shutdown
}

func newRuntime(opts app.Options) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)

	shutdownTracing, err := observability.SetupTracing(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	a, err := app.New(cfg, logger, opts)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("build app: %w", err)
	}

	return &runtime{
		cfg:             cfg,
		logger:          logger,
		app:             a,
		shutdownTracing: shutdownTracing,
	}, nil
}

func (r *runtime) Close() {
	if err := r.app.Close(); err != nil {
		r.logger.Error("close app", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.shutdownTracing(ctx); err != nil {
		r.logger.Error("shutdown tracing", "error", err)
	}
	_ = r.logger.Sync()
}
