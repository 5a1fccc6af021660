package observability

import (
	"context"
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
)

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// SetupTracing installs the Uptrace exporter as the global OpenTelemetry
// provider. Without it every span below stays a no-op.
func SetupTracing(cfg config.Config, logger *logging.Logger) (Shutdown, error) {
	if logger == nil {
		logger = logging.Default()
	}

	dsn := strings.TrimSpace(cfg.UptraceDSN)
	switch {
	case !cfg.UptraceEnabled:
		logger.Debug("tracing disabled", "reason", "UPTRACE_ENABLED=false")
		return noopShutdown, nil
	case dsn == "":
		logger.Info("tracing disabled", "reason", "UPTRACE_DSN empty")
		return noopShutdown, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(dsn),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(resourceAttributes(cfg)...),
	)
	logger.Info("tracing enabled",
		"exporter", "uptrace",
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
		"team", cfg.TeamName,
	)
	return uptrace.Shutdown, nil
}

func resourceAttributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("sync.team", cfg.TeamName)}
	if id := strings.TrimSpace(cfg.TheSportsDB.TeamID); id != "" {
		attrs = append(attrs, attribute.String("sync.thesportsdb.team_id", id))
	}
	if id := strings.TrimSpace(cfg.FootballData.TeamID); id != "" {
		attrs = append(attrs, attribute.String("sync.football_data.team_id", id))
	}
	return attrs
}

// StartCommand opens the root span for one CLI invocation or scheduled
// tick. Use-case spans only record beneath it.
func StartCommand(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("football-sync/cmd").Start(ctx, "cmd."+command,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithNewRoot(),
		trace.WithAttributes(attrs...),
	)
}
