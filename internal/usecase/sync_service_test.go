package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/football-sync/internal/mocks/usecase"
	"github.com/riskibarqy/football-sync/internal/platform/id"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/ratelimit"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type providerAdapter struct {
	*usecasemock.SourceAdapter
	*usecasemock.TeamInfoFetcher
	*usecasemock.StandingsFetcher
}

func newProviderAdapter(t *testing.T, source usecase.Source) *providerAdapter {
	a := &providerAdapter{
		SourceAdapter:    usecasemock.NewSourceAdapter(t),
		TeamInfoFetcher:  usecasemock.NewTeamInfoFetcher(t),
		StandingsFetcher: usecasemock.NewStandingsFetcher(t),
	}
	a.SourceAdapter.On("Source").Return(source).Maybe()
	return a
}

var (
	ipswich = usecase.TeamRef{
		Name: "Ipswich Town",
		ProviderIDs: map[usecase.Source]string{
			usecase.SourceTheSportsDB:  "133884",
			usecase.SourceFootballData: "349",
		},
	}
	augustScope = usecase.SyncScope{
		From: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC),
	}
	openingDay = time.Date(2025, 8, 9, 14, 0, 0, 0, time.UTC)
)

func newLimiter(t *testing.T) *ratelimit.Registry {
	t.Helper()
	limiter := ratelimit.NewRegistry()
	for _, source := range []usecase.Source{usecase.SourceTheSportsDB, usecase.SourceFootballData} {
		if err := limiter.Register(string(source), ratelimit.Policy{MaxRequests: 1000, Window: time.Second}); err != nil {
			t.Fatalf("register limiter: %v", err)
		}
	}
	t.Cleanup(limiter.Close)
	return limiter
}

func newSyncService(t *testing.T, store usecase.Store, team usecase.TeamRef, workers int, adapters ...usecase.SourceAdapter) *usecase.SyncService {
	t.Helper()
	ids := id.NewSequenceGenerator("id")
	return usecase.NewSyncService(store, adapters, newLimiter(t), nil, nil, ids, usecase.SyncConfig{
		Team:                 team,
		Competitions:         []season.Competition{{Code: "championship", Name: "EFL Championship"}},
		MaxWorkers:           workers,
		RateLimitRetries:     3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
	}, logging.NewNop())
}

func fixture(source usecase.Source, providerID, homeID, homeName, awayID, awayName string) usecase.ProviderMatchRecord {
	return usecase.ProviderMatchRecord{
		RecordMeta:      usecase.RecordMeta{Source: source, ProviderID: providerID},
		CompetitionCode: "championship",
		SeasonName:      "2025/26",
		KickoffAt:       openingDay,
		Home:            usecase.ProviderTeamSide{ProviderID: homeID, Name: homeName},
		Away:            usecase.ProviderTeamSide{ProviderID: awayID, Name: awayName},
		HomeScore:       intRef(2),
		AwayScore:       intRef(1),
		Status:          match.StatusFinished,
	}
}

func intRef(v int) *int { return &v }

// expectFullSeason wires both providers with the same opening-day fixture.
func expectFullSeason(tsdb, fd *providerAdapter, tsdbSquad *[]usecase.ProviderPlayerRecord) {
	possession := 55.0
	dob := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)

	tsdb.TeamInfoFetcher.On("FetchTeam", mock.Anything, mock.Anything).Return(usecase.ProviderTeamRecord{
		RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "133884"},
		Name:       "Ipswich Town",
		City:       "Ipswich",
		Stadium:    "Portman Road",
	}, nil).Maybe()
	fd.TeamInfoFetcher.On("FetchTeam", mock.Anything, mock.Anything).Return(usecase.ProviderTeamRecord{
		RecordMeta:  usecase.RecordMeta{Source: usecase.SourceFootballData, ProviderID: "349"},
		Name:        "Ipswich Town FC",
		ShortName:   "Ipswich",
		Stadium:     "Portman Road",
		FoundedYear: intRef(1878),
	}, nil).Maybe()

	tsdb.SourceAdapter.On("FetchTeamSquad", mock.Anything, mock.Anything).Return(
		func(context.Context, usecase.TeamRef) ([]usecase.ProviderPlayerRecord, error) {
			return *tsdbSquad, nil
		}).Maybe()
	fd.SourceAdapter.On("FetchTeamSquad", mock.Anything, mock.Anything).Return([]usecase.ProviderPlayerRecord{
		{
			RecordMeta:  usecase.RecordMeta{Source: usecase.SourceFootballData, ProviderID: "9001"},
			Name:        "Leif Davis",
			DateOfBirth: &dob,
			Position:    player.PositionDefender,
		},
	}, nil).Maybe()

	tsdb.SourceAdapter.On("FetchSeasonMatches", mock.Anything, mock.Anything, "2025/26").Return([]usecase.ProviderMatchRecord{
		fixture(usecase.SourceTheSportsDB, "e1", "133884", "Ipswich Town", "134000", "Birmingham City"),
	}, nil).Maybe()
	fdFixture := fixture(usecase.SourceFootballData, "f1", "349", "Ipswich Town FC", "332", "Birmingham City FC")
	fdFixture.Venue = "Portman Road"
	fd.SourceAdapter.On("FetchSeasonMatches", mock.Anything, mock.Anything, "2025/26").Return([]usecase.ProviderMatchRecord{
		fdFixture,
	}, nil).Maybe()

	tsdb.SourceAdapter.On("FetchMatchDetail", mock.Anything, "e1").Return(usecase.ProviderMatchDetail{
		RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "e1"},
		Home:       &usecase.ProviderTeamStats{Shots: intRef(10)},
		Goals: []usecase.ProviderGoal{
			{Side: "home", Scorer: usecase.ProviderPlayerRef{ProviderID: "34146", Name: "Sammie Szmodics"}, Minute: 23},
		},
	}, nil).Maybe()
	fd.SourceAdapter.On("FetchMatchDetail", mock.Anything, "f1").Return(usecase.ProviderMatchDetail{
		RecordMeta: usecase.RecordMeta{Source: usecase.SourceFootballData, ProviderID: "f1"},
		Home:       &usecase.ProviderTeamStats{Possession: &possession},
	}, nil).Maybe()

	tsdb.StandingsFetcher.On("FetchStandings", mock.Anything, "championship", "2025/26").Return(nil, nil).Maybe()
	fd.StandingsFetcher.On("FetchStandings", mock.Anything, "championship", "2025/26").Return([]usecase.ProviderStandingRecord{
		{
			RecordMeta:   usecase.RecordMeta{Source: usecase.SourceFootballData, ProviderID: "349"},
			TeamName:     "Ipswich Town FC",
			Position:     1,
			Played:       1,
			Won:          1,
			GoalsFor:     2,
			GoalsAgainst: 1,
			Points:       3,
		},
	}, nil).Maybe()
}

func defaultTSDBSquad() []usecase.ProviderPlayerRecord {
	return []usecase.ProviderPlayerRecord{
		{RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "34145"}, Name: "Leif Davis", Position: player.PositionDefender},
		{RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "34146"}, Name: "Sammie Szmodics", Position: player.PositionMidfielder},
	}
}

func lookupID(t *testing.T, store *memory.Store, entityType externalid.EntityType, source usecase.Source, providerID string) string {
	t.Helper()
	var internalID string
	seed(t, store, func(ctx context.Context, tx usecase.Tx) error {
		mapping, ok, err := tx.ExternalIDs().Lookup(ctx, entityType, string(source), providerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %s:%s is not mapped", entityType, source, providerID)
		}
		internalID = mapping.InternalID
		return nil
	})
	return internalID
}

func TestSyncService_RunSync_FullCycle(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	fd := newProviderAdapter(t, usecase.SourceFootballData)
	squad := defaultTSDBSquad()
	expectFullSeason(tsdb, fd, &squad)
	service := newSyncService(t, store, ipswich, 4, tsdb, fd)

	report, err := service.RunSync(context.Background(), augustScope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FinalState != usecase.StateIdle || report.ExitCode() != 0 {
		t.Fatalf("expected a clean run, got %s exit=%d", report.FinalState, report.ExitCode())
	}
	if len(report.ItemsFailed) != 0 {
		t.Fatalf("unexpected item failures %+v", report.ItemsFailed)
	}
	if report.ItemsChanged == 0 {
		t.Fatalf("first run must change rows")
	}
	if service.State() != usecase.StateIdle {
		t.Fatalf("service must be idle after a run, got %s", service.State())
	}

	ipsID := lookupID(t, store, externalid.EntityTeam, usecase.SourceTheSportsDB, "133884")
	if got := lookupID(t, store, externalid.EntityTeam, usecase.SourceFootballData, "349"); got != ipsID {
		t.Fatalf("both providers must map to the same team, got %s and %s", ipsID, got)
	}
	birID := lookupID(t, store, externalid.EntityTeam, usecase.SourceTheSportsDB, "134000")
	if got := lookupID(t, store, externalid.EntityTeam, usecase.SourceFootballData, "332"); got != birID {
		t.Fatalf("opponent must be merged across providers, got %s and %s", birID, got)
	}
	davisID := lookupID(t, store, externalid.EntityPlayer, usecase.SourceTheSportsDB, "34145")
	if got := lookupID(t, store, externalid.EntityPlayer, usecase.SourceFootballData, "9001"); got != davisID {
		t.Fatalf("player must be merged across providers, got %s and %s", davisID, got)
	}
	szmodicsID := lookupID(t, store, externalid.EntityPlayer, usecase.SourceTheSportsDB, "34146")
	matchID := lookupID(t, store, externalid.EntityMatch, usecase.SourceTheSportsDB, "e1")
	if got := lookupID(t, store, externalid.EntityMatch, usecase.SourceFootballData, "f1"); got != matchID {
		t.Fatalf("fixture must be merged across providers, got %s and %s", matchID, got)
	}

	seed(t, store, func(ctx context.Context, tx usecase.Tx) error {
		tm, _, err := tx.Teams().GetByID(ctx, ipsID)
		if err != nil {
			return err
		}
		if tm.Name != "Ipswich Town" || tm.Stadium != "Portman Road" || tm.City != "Ipswich" {
			t.Fatalf("unexpected team row %+v", tm)
		}

		davis, _, err := tx.Players().GetByID(ctx, davisID)
		if err != nil {
			return err
		}
		if davis.TeamID != ipsID || davis.DateOfBirth == nil || !davis.Active() {
			t.Fatalf("unexpected player row %+v", davis)
		}

		m, _, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != match.StatusFinished || *m.HomeScore != 2 || *m.AwayScore != 1 {
			t.Fatalf("unexpected match result %+v", m)
		}
		if m.HomeTeamID != ipsID || m.AwayTeamID != birID || m.Venue != "Portman Road" {
			t.Fatalf("unexpected match row %+v", m)
		}

		detail, ok, err := tx.MatchDetails().Get(ctx, matchID)
		if err != nil {
			return err
		}
		if !ok || len(detail.Goals) != 1 || detail.Goals[0].PlayerID != szmodicsID {
			t.Fatalf("unexpected detail goals %+v", detail.Goals)
		}
		if detail.Home == nil || *detail.Home.Possession != 55 || *detail.Home.Shots != 10 {
			t.Fatalf("unexpected home statistics %+v", detail.Home)
		}
		if len(detail.PlayerStats) != 1 || detail.PlayerStats[0].Goals != 1 {
			t.Fatalf("unexpected player stats %+v", detail.PlayerStats)
		}

		row, ok, err := tx.Standings().Get(ctx, "championship", "2025/26", ipsID)
		if err != nil {
			return err
		}
		if !ok || row.Position != 1 || row.Points != 3 {
			t.Fatalf("unexpected standing %+v", row)
		}

		runs, err := tx.SyncRuns().ListRecent(ctx, 10)
		if err != nil {
			return err
		}
		if len(runs) != 1 || runs[0].FinalState != string(usecase.StateIdle) || runs[0].ExitCode != 0 {
			t.Fatalf("unexpected run history %+v", runs)
		}
		return nil
	})

	again, err := service.RunSync(context.Background(), augustScope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ItemsChanged != 0 {
		t.Fatalf("rerun over unchanged data must not change rows, got %d changes", again.ItemsChanged)
	}
	if again.ItemsProcessed != report.ItemsProcessed || len(again.ItemsFailed) != 0 {
		t.Fatalf("rerun must visit the same items: %d vs %d, failures %+v",
			again.ItemsProcessed, report.ItemsProcessed, again.ItemsFailed)
	}
}

func TestSyncService_RunSync_MarksDepartures(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	fd := newProviderAdapter(t, usecase.SourceFootballData)
	squad := defaultTSDBSquad()
	expectFullSeason(tsdb, fd, &squad)
	service := newSyncService(t, store, ipswich, 4, tsdb, fd)

	scope := augustScope
	scope.EntityTypes = []usecase.EntityType{usecase.EntityTeam, usecase.EntityPlayer}
	if _, err := service.RunSync(context.Background(), scope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	szmodicsID := lookupID(t, store, externalid.EntityPlayer, usecase.SourceTheSportsDB, "34146")

	squad = squad[:1]
	report, err := service.RunSync(context.Background(), scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ItemsChanged != 1 {
		t.Fatalf("expected exactly the departure to change, got %d", report.ItemsChanged)
	}

	seed(t, store, func(ctx context.Context, tx usecase.Tx) error {
		p, _, err := tx.Players().GetByID(ctx, szmodicsID)
		if err != nil {
			return err
		}
		if p.Active() || p.LeftAt == nil {
			t.Fatalf("player missing from every squad must be marked departed, got %+v", p)
		}
		return nil
	})
}

func TestSyncService_RunSync_RetriesRateLimitedCalls(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	fd := newProviderAdapter(t, usecase.SourceFootballData)
	fd.SourceAdapter.On("FetchTeamSquad", mock.Anything, mock.Anything).
		Return(nil, &usecase.RateLimitedError{Source: usecase.SourceFootballData, RetryAfter: time.Millisecond}).
		Twice()
	squad := defaultTSDBSquad()
	expectFullSeason(tsdb, fd, &squad)
	service := newSyncService(t, store, ipswich, 2, tsdb, fd)

	scope := augustScope
	scope.EntityTypes = []usecase.EntityType{usecase.EntityTeam, usecase.EntityPlayer}
	report, err := service.RunSync(context.Background(), scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.ItemsFailed) != 0 || report.ExitCode() != 0 {
		t.Fatalf("rate limited calls must be retried, got %+v", report.ItemsFailed)
	}
	lookupID(t, store, externalid.EntityPlayer, usecase.SourceFootballData, "9001")
	fd.SourceAdapter.AssertNumberOfCalls(t, "FetchTeamSquad", 3)
}

func TestSyncService_RunSync_SourceUnavailableAbortsStep(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	tsdb.TeamInfoFetcher.On("FetchTeam", mock.Anything, mock.Anything).Return(usecase.ProviderTeamRecord{
		RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "133884"},
		Name:       "Ipswich Town",
	}, nil).Once()
	tsdb.SourceAdapter.On("FetchTeamSquad", mock.Anything, mock.Anything).Return(nil, nil).Once()
	tsdb.SourceAdapter.On("FetchSeasonMatches", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("thesportsdb: 401: %w", usecase.ErrSourceUnavailable)).
		Once()

	team := usecase.TeamRef{
		Name:        "Ipswich Town",
		ProviderIDs: map[usecase.Source]string{usecase.SourceTheSportsDB: "133884"},
	}
	service := newSyncService(t, store, team, 1, tsdb)

	scope := usecase.SyncScope{
		From: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	report, err := service.RunSync(context.Background(), scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", report.ExitCode())
	}
	if report.FailedStep != usecase.StateFetchingMatches ||
		report.FinalState != usecase.FailedState(usecase.StateFetchingMatches) {
		t.Fatalf("unexpected final state %s (failed step %s)", report.FinalState, report.FailedStep)
	}
	if report.FinalState != "failed(fetching_matches)" {
		t.Fatalf("unexpected final state label %s", report.FinalState)
	}
	if len(report.StepsAborted) != 1 || report.StepsAborted[0] != usecase.StateFetchingMatches {
		t.Fatalf("unexpected aborted steps %v", report.StepsAborted)
	}

	var unavailable, notStarted int
	for _, f := range report.ItemsFailed {
		switch {
		case f.Reason == "not started: step aborted":
			notStarted++
		case strings.Contains(f.Reason, "source unavailable"):
			unavailable++
		}
	}
	if unavailable != 1 || notStarted != 1 {
		t.Fatalf("expected one failed and one skipped season fetch, got %+v", report.ItemsFailed)
	}

	lookupID(t, store, externalid.EntityTeam, usecase.SourceTheSportsDB, "133884")
	tsdb.SourceAdapter.AssertNotCalled(t, "FetchMatchDetail", mock.Anything, mock.Anything)

	seed(t, store, func(ctx context.Context, tx usecase.Tx) error {
		runs, err := tx.SyncRuns().ListRecent(ctx, 1)
		if err != nil {
			return err
		}
		if len(runs) != 1 || runs[0].ExitCode != 1 || runs[0].FailedStep != string(usecase.StateFetchingMatches) {
			t.Fatalf("unexpected run history %+v", runs)
		}
		return nil
	})
}

func TestSyncService_RunSync_RejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	started := make(chan struct{})
	release := make(chan struct{})
	tsdb.TeamInfoFetcher.On("FetchTeam", mock.Anything, mock.Anything).Return(
		func(context.Context, usecase.TeamRef) (usecase.ProviderTeamRecord, error) {
			close(started)
			<-release
			return usecase.ProviderTeamRecord{
				RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: "133884"},
				Name:       "Ipswich Town",
			}, nil
		}).Once()

	team := usecase.TeamRef{
		Name:        "Ipswich Town",
		ProviderIDs: map[usecase.Source]string{usecase.SourceTheSportsDB: "133884"},
	}
	service := newSyncService(t, store, team, 1, tsdb)
	scope := augustScope
	scope.EntityTypes = []usecase.EntityType{usecase.EntityTeam}

	type result struct {
		report usecase.SyncReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := service.RunSync(context.Background(), scope)
		done <- result{report: report, err: err}
	}()

	<-started
	if state := service.State(); state != usecase.StateFetchingTeams {
		t.Fatalf("expected fetching_teams while blocked, got %s", state)
	}
	if _, err := service.RunSync(context.Background(), scope); !errors.Is(err, usecase.ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	close(release)

	first := <-done
	if first.err != nil || first.report.ExitCode() != 0 {
		t.Fatalf("first run must finish cleanly, got %v %+v", first.err, first.report)
	}
	if service.State() != usecase.StateIdle {
		t.Fatalf("expected idle after the run, got %s", service.State())
	}
}

func TestSyncService_RunSync_Cancelled(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	tsdb := newProviderAdapter(t, usecase.SourceTheSportsDB)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tsdb.TeamInfoFetcher.On("FetchTeam", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, _ usecase.TeamRef) (usecase.ProviderTeamRecord, error) {
			cancel()
			return usecase.ProviderTeamRecord{}, ctx.Err()
		}).Once()

	team := usecase.TeamRef{
		Name:        "Ipswich Town",
		ProviderIDs: map[usecase.Source]string{usecase.SourceTheSportsDB: "133884"},
	}
	service := newSyncService(t, store, team, 1, tsdb)

	report, err := service.RunSync(ctx, augustScope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FailedStep != usecase.StateFetchingTeams || !strings.Contains(report.FailureReason, "context canceled") {
		t.Fatalf("expected the teams step to fail on cancellation, got %s %q", report.FailedStep, report.FailureReason)
	}
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", report.ExitCode())
	}
	tsdb.SourceAdapter.AssertNotCalled(t, "FetchSeasonMatches", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_RunSync_InvalidScope(t *testing.T) {
	t.Parallel()

	service := newSyncService(t, memory.NewStore(), ipswich, 1)
	_, err := service.RunSync(context.Background(), usecase.SyncScope{
		From: augustScope.To,
		To:   augustScope.From,
	})
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
