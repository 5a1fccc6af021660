package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

// faultStore runs every transaction against a memory store but lets a test
// fail match upserts or detail replacement inside it.
type faultStore struct {
	*memory.Store

	upsertFailures atomic.Int32
	upserts        atomic.Int32
	replaceErr     error
}

func (s *faultStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx usecase.Tx) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
		return fn(ctx, faultTx{Tx: tx, store: s})
	})
}

type faultTx struct {
	usecase.Tx
	store *faultStore
}

func (t faultTx) Matches() match.Repository {
	return faultMatches{Repository: t.Tx.Matches(), store: t.store}
}

func (t faultTx) MatchDetails() matchdetail.Repository {
	return faultDetails{Repository: t.Tx.MatchDetails(), store: t.store}
}

type faultMatches struct {
	match.Repository
	store *faultStore
}

func (r faultMatches) Upsert(ctx context.Context, item match.Match) error {
	r.store.upserts.Add(1)
	if r.store.upsertFailures.Add(-1) >= 0 {
		return fmt.Errorf("serialization conflict on match %s: %w", item.ID, usecase.ErrTransactionFailure)
	}
	return r.Repository.Upsert(ctx, item)
}

type faultDetails struct {
	matchdetail.Repository
	store *faultStore
}

func (r faultDetails) Replace(ctx context.Context, detail matchdetail.Detail) error {
	if r.store.replaceErr != nil {
		return r.store.replaceErr
	}
	return r.Repository.Replace(ctx, detail)
}

func matchScope() usecase.SyncScope {
	scope := augustScope
	scope.EntityTypes = []usecase.EntityType{usecase.EntityTeam, usecase.EntityMatch}
	return scope
}

func TestSyncService_RunSync_RetriesFailedTransactionOnce(t *testing.T) {
	t.Parallel()

	store := &faultStore{Store: memory.NewStore()}
	store.upsertFailures.Store(1)
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	fd := newProviderAdapter(t, usecase.SourceFootballData)
	squad := defaultTSDBSquad()
	expectFullSeason(tsdb, fd, &squad)
	service := newSyncService(t, store, ipswich, 4, tsdb, fd)

	report, err := service.RunSync(context.Background(), matchScope())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.ItemsFailed) != 0 {
		t.Fatalf("a single conflict must be absorbed by the retry, got failures %+v", report.ItemsFailed)
	}
	if got := store.upserts.Load(); got != 2 {
		t.Fatalf("expected the match upsert to run twice, got %d", got)
	}

	matchID := lookupID(t, store.Store, externalid.EntityMatch, usecase.SourceFootballData, "f1")
	seed(t, store.Store, func(ctx context.Context, tx usecase.Tx) error {
		m, ok, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !ok || m.Status != match.StatusFinished || *m.HomeScore != 2 {
			t.Fatalf("expected the retried upsert to commit, got %+v (found=%v)", m, ok)
		}
		return nil
	})
}

func TestSyncService_RunSync_GivesUpAfterOneTransactionRetry(t *testing.T) {
	t.Parallel()

	store := &faultStore{Store: memory.NewStore()}
	store.upsertFailures.Store(100)
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	fd := newProviderAdapter(t, usecase.SourceFootballData)
	squad := defaultTSDBSquad()
	expectFullSeason(tsdb, fd, &squad)
	service := newSyncService(t, store, ipswich, 4, tsdb, fd)

	report, err := service.RunSync(context.Background(), matchScope())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.upserts.Load(); got != 2 {
		t.Fatalf("expected exactly one retry of the match transaction, got %d attempts", got)
	}

	var failed bool
	for _, f := range report.ItemsFailed {
		if f.Step == usecase.StateFetchingMatches && strings.HasPrefix(f.Item, "match:") {
			failed = strings.Contains(f.Reason, usecase.ErrTransactionFailure.Error())
		}
	}
	if !failed {
		t.Fatalf("expected the match item to fail with a transaction failure, got %+v", report.ItemsFailed)
	}

	seed(t, store.Store, func(ctx context.Context, tx usecase.Tx) error {
		matches, err := tx.Matches().ListByDateRange(ctx, augustScope.From, augustScope.To)
		if err != nil {
			return err
		}
		if len(matches) != 0 {
			t.Fatalf("rolled back transactions must not leave matches, got %+v", matches)
		}
		_, ok, err := tx.ExternalIDs().Lookup(ctx, externalid.EntityMatch, string(usecase.SourceFootballData), "f1")
		if err != nil {
			return err
		}
		if ok {
			t.Fatalf("rolled back transactions must not leave match mappings")
		}
		return nil
	})
}

func TestSyncService_RunSync_DetailWriteFailureRollsBackMatchUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		replaceErr error
	}{
		{name: "replace succeeds"},
		{name: "replace fails", replaceErr: errors.New("goals table locked")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &faultStore{Store: memory.NewStore(), replaceErr: tt.replaceErr}
			tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
			fd := newProviderAdapter(t, usecase.SourceFootballData)

			withAttendance := fixture(usecase.SourceTheSportsDB, "e1", "133884", "Ipswich Town", "134000", "Birmingham City")
			withAttendance.Attendance = intRef(29311)
			tsdb.SourceAdapter.On("FetchMatchDetail", mock.Anything, "e1").Return(usecase.ProviderMatchDetail{
				RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "e1"},
				Match:      &withAttendance,
				Home:       &usecase.ProviderTeamStats{Shots: intRef(10)},
			}, nil).Maybe()
			squad := defaultTSDBSquad()
			expectFullSeason(tsdb, fd, &squad)
			service := newSyncService(t, store, ipswich, 4, tsdb, fd)

			scope := augustScope
			scope.EntityTypes = []usecase.EntityType{usecase.EntityTeam, usecase.EntityMatch, usecase.EntityMatchDetail}
			report, err := service.RunSync(context.Background(), scope)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var detailFailed bool
			for _, f := range report.ItemsFailed {
				if f.Step == usecase.StateFetchingMatchDetails {
					detailFailed = true
				}
			}
			if detailFailed != (tt.replaceErr != nil) {
				t.Fatalf("unexpected detail failures %+v", report.ItemsFailed)
			}

			matchID := lookupID(t, store.Store, externalid.EntityMatch, usecase.SourceTheSportsDB, "e1")
			seed(t, store.Store, func(ctx context.Context, tx usecase.Tx) error {
				m, ok, err := tx.Matches().GetByID(ctx, matchID)
				if err != nil {
					return err
				}
				if !ok {
					t.Fatalf("match from the fixtures step must survive")
				}
				detail, hasDetail, err := tx.MatchDetails().Get(ctx, matchID)
				if err != nil {
					return err
				}

				if tt.replaceErr == nil {
					if m.Attendance == nil || *m.Attendance != 29311 || !hasDetail {
						t.Fatalf("expected match update and children to commit, got %+v / %+v", m, detail)
					}
					return nil
				}
				if m.Attendance != nil {
					t.Fatalf("match update must roll back with the failed detail write, got attendance %d", *m.Attendance)
				}
				if hasDetail || detail.Home != nil || len(detail.Goals) != 0 {
					t.Fatalf("no child rows may persist after a failed replace, got %+v", detail)
				}
				return nil
			})
		})
	}
}

func TestSyncService_RunSync_AmbiguousStandingRowKeepsTheRest(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seed(t, store, func(ctx context.Context, tx usecase.Tx) error {
		for _, id := range []string{"sun01", "sun02"} {
			if err := tx.Teams().Upsert(ctx, team.Team{ID: id, Name: "Sunderland", NormalizedName: "sunderland"}); err != nil {
				return err
			}
		}
		return nil
	})

	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	fd := newProviderAdapter(t, usecase.SourceFootballData)
	row := func(providerID, name string, position, points int) usecase.ProviderStandingRecord {
		return usecase.ProviderStandingRecord{
			RecordMeta: usecase.RecordMeta{Source: usecase.SourceFootballData, ProviderID: providerID},
			TeamName:   name,
			Position:   position,
			Played:     1,
			Points:     points,
		}
	}
	fd.StandingsFetcher.On("FetchStandings", mock.Anything, "championship", "2025/26").Return([]usecase.ProviderStandingRecord{
		row("349", "Ipswich Town FC", 1, 3),
		row("71", "Sunderland AFC", 2, 3),
		row("332", "Birmingham City FC", 24, 0),
	}, nil).Maybe()
	squad := defaultTSDBSquad()
	expectFullSeason(tsdb, fd, &squad)
	service := newSyncService(t, store, ipswich, 4, tsdb, fd)

	scope := augustScope
	scope.EntityTypes = []usecase.EntityType{usecase.EntityTeam, usecase.EntityMatch, usecase.EntityStanding}
	report, err := service.RunSync(context.Background(), scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.ItemsFailed) != 1 {
		t.Fatalf("expected only the Sunderland row to fail, got %+v", report.ItemsFailed)
	}
	failure := report.ItemsFailed[0]
	if failure.Step != usecase.StateFetchingStats || !strings.HasSuffix(failure.Item, ":71") ||
		!strings.Contains(failure.Reason, usecase.ErrAmbiguousIdentity.Error()) {
		t.Fatalf("unexpected failure %+v", failure)
	}

	ipsID := lookupID(t, store, externalid.EntityTeam, usecase.SourceFootballData, "349")
	birID := lookupID(t, store, externalid.EntityTeam, usecase.SourceFootballData, "332")
	seed(t, store, func(ctx context.Context, tx usecase.Tx) error {
		for teamID, want := range map[string]int{ipsID: 1, birID: 24} {
			got, ok, err := tx.Standings().Get(ctx, "championship", "2025/26", teamID)
			if err != nil {
				return err
			}
			if !ok || got.Position != want {
				t.Fatalf("expected standing at %d for %s, got %+v (found=%v)", want, teamID, got, ok)
			}
		}
		for _, id := range []string{"sun01", "sun02"} {
			if _, ok, err := tx.Standings().Get(ctx, "championship", "2025/26", id); err != nil || ok {
				t.Fatalf("ambiguous row must not be stored for %s (err=%v)", id, err)
			}
		}
		return nil
	})
}
