package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
)

func TestSetupTracing_DisabledReturnsNoop(t *testing.T) {
	cases := map[string]config.Config{
		"disabled":  {UptraceEnabled: false, UptraceDSN: "https://token@api.uptrace.dev/1"},
		"blank dsn": {UptraceEnabled: true, UptraceDSN: "  "},
	}
	for name, cfg := range cases {
		cfg.ServiceName = "football-sync"
		shutdown, err := SetupTracing(cfg, logging.NewNop())
		if err != nil {
			t.Fatalf("%s: setup tracing: %v", name, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("%s: shutdown: %v", name, err)
		}
	}
}

func TestResourceAttributes(t *testing.T) {
	t.Parallel()

	cfg := config.Config{TeamName: "Ipswich Town"}
	cfg.TheSportsDB.TeamID = "133604"

	got := resourceAttributes(cfg)
	want := []attribute.KeyValue{
		attribute.String("sync.team", "Ipswich Town"),
		attribute.String("sync.thesportsdb.team_id", "133604"),
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected attributes %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("attribute %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStartCommand_WithoutProviderIsNoop(t *testing.T) {
	t.Parallel()

	ctx, span := StartCommand(context.Background(), "run")
	defer span.End()
	if ctx == nil {
		t.Fatalf("expected context")
	}
	if span.IsRecording() {
		t.Fatalf("expected no-op span without a configured provider")
	}
}
