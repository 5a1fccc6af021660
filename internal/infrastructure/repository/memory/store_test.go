package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	crerrors "github.com/cockroachdb/errors"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func TestStore_WithinTx_RollbackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		if err := tx.Teams().Upsert(ctx, team.Team{ID: "t1", Name: "Ipswich Town", NormalizedName: "ipswich town"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		_, ok, err := tx.Teams().GetByID(ctx, "t1")
		if err != nil {
			return err
		}
		if ok {
			t.Fatalf("rolled back team must not be visible")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read tx error: %v", err)
	}
}

func TestStore_WithinTx_Commit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	err := store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		return tx.Teams().Upsert(ctx, team.Team{ID: "t1", Name: "Ipswich Town", NormalizedName: "ipswich town"})
	})
	if err != nil {
		t.Fatalf("commit error: %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		items, err := tx.Teams().FindByNormalizedName(ctx, "ipswich town")
		if err != nil {
			return err
		}
		if len(items) != 1 || items[0].ID != "t1" {
			t.Fatalf("unexpected teams: %+v", items)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read tx error: %v", err)
	}
}

func TestStore_WithinTx_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewStore().WithinTx(ctx, func(context.Context, usecase.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run on a cancelled context")
	}
}

func TestExternalIDRepository_BindConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	err := store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		repo := tx.ExternalIDs()
		base := externalid.Mapping{EntityType: externalid.EntityTeam, Source: "thesportsdb", ProviderID: "133617", InternalID: "ips01"}
		if err := repo.Bind(ctx, base); err != nil {
			t.Fatalf("bind error: %v", err)
		}
		if err := repo.Bind(ctx, base); err != nil {
			t.Fatalf("identical bind must be a no-op, got %v", err)
		}

		other := base
		other.InternalID = "nor01"
		err := repo.Bind(ctx, other)
		if !crerrors.Is(err, externalid.ErrConflict) || !crerrors.Is(err, usecase.ErrTransactionFailure) {
			t.Fatalf("expected conflict marked as transaction failure, got %v", err)
		}

		second := base
		second.ProviderID = "999"
		if err := repo.Bind(ctx, second); !crerrors.Is(err, externalid.ErrConflict) {
			t.Fatalf("expected conflict for second id of same source, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func TestExternalIDRepository_Rebind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	err := store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		repo := tx.ExternalIDs()
		base := externalid.Mapping{EntityType: externalid.EntityPlayer, Source: "football_data", ProviderID: "7", InternalID: "p1"}
		if err := repo.Bind(ctx, base); err != nil {
			return err
		}
		moved := base
		moved.InternalID = "p2"
		previous, err := repo.Rebind(ctx, moved)
		if err != nil {
			return err
		}
		if previous != "p1" {
			t.Fatalf("expected previous p1, got %q", previous)
		}
		got, ok, err := repo.Lookup(ctx, externalid.EntityPlayer, "football_data", "7")
		if err != nil || !ok || got.InternalID != "p2" {
			t.Fatalf("unexpected mapping after rebind: %+v ok=%t err=%v", got, ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func TestMatchRepository_FixtureUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	day := time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)
	err := NewStore().WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		first := match.Match{ID: "m1", HomeTeamID: "a", AwayTeamID: "b", Date: day, Status: match.StatusScheduled}
		if err := tx.Matches().Upsert(ctx, first); err != nil {
			return err
		}
		dup := first
		dup.ID = "m2"
		if err := tx.Matches().Upsert(ctx, dup); !crerrors.Is(err, usecase.ErrTransactionFailure) {
			t.Fatalf("expected duplicate fixture to fail as transaction failure, got %v", err)
		}

		items, err := tx.Matches().FindByFixture(ctx, "a", "b", day.Add(20*time.Hour))
		if err != nil {
			return err
		}
		if len(items) != 1 || items[0].ID != "m1" {
			t.Fatalf("unexpected fixture lookup: %+v", items)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}
