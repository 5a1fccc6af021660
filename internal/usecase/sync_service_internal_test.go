package usecase

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
)

func TestParseEntityTypes(t *testing.T) {
	t.Parallel()

	got, err := ParseEntityTypes([]string{" Team", "match", "team", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != EntityTeam || got[1] != EntityMatch {
		t.Fatalf("unexpected entity types %v", got)
	}

	if _, err := ParseEntityTypes([]string{"referee"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeWorkerCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		requested, tasks, want int
	}{
		{requested: 0, tasks: 10, want: 4},
		{requested: 8, tasks: 3, want: 3},
		{requested: 2, tasks: 10, want: 2},
		{requested: -1, tasks: 0, want: 4},
	}
	for _, tc := range cases {
		if got := normalizeWorkerCount(tc.requested, tc.tasks); got != tc.want {
			t.Fatalf("normalizeWorkerCount(%d, %d) = %d, want %d", tc.requested, tc.tasks, got, tc.want)
		}
	}
}

func TestHintedBackOff_HonoursRetryAfter(t *testing.T) {
	t.Parallel()

	base := backoff.NewExponentialBackOff()
	base.InitialInterval = time.Millisecond
	base.MaxInterval = 10 * time.Millisecond
	b := &hintedBackOff{base: base, hint: 3 * time.Second}

	if got := b.NextBackOff(); got != 3*time.Second {
		t.Fatalf("expected the retry-after hint, got %s", got)
	}
	if got := b.NextBackOff(); got >= time.Second {
		t.Fatalf("hint must only apply once, got %s", got)
	}
}

func TestRankByFreshness(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	newer := at.Add(time.Minute)
	older := at.Add(-5 * time.Minute)

	cases := []struct {
		name  string
		metas []RecordMeta
		want  []int
	}{
		{
			name: "mixed timestamps fall back to fetch order then priority",
			metas: []RecordMeta{
				{Source: SourceTheSportsDB, FetchedAt: at},
				{Source: SourceFootballData, FetchedAt: at},
				{Source: SourceTheSportsDB, UpdatedAt: &newer, FetchedAt: at},
			},
			want: []int{1, 0, 2},
		},
		{
			name: "provider time lagging the fetch does not lose to it",
			metas: []RecordMeta{
				{Source: SourceTheSportsDB, FetchedAt: at},
				{Source: SourceFootballData, UpdatedAt: &older, FetchedAt: at},
			},
			want: []int{1, 0},
		},
		{
			name: "provider times decide when every record has one",
			metas: []RecordMeta{
				{Source: SourceFootballData, UpdatedAt: &older, FetchedAt: at},
				{Source: SourceTheSportsDB, UpdatedAt: &newer, FetchedAt: at},
			},
			want: []int{1, 0},
		},
		{
			name: "later step wins without provider times",
			metas: []RecordMeta{
				{Source: SourceFootballData, FetchedAt: at},
				{Source: SourceTheSportsDB, FetchedAt: newer},
			},
			want: []int{1, 0},
		},
	}
	for _, tc := range cases {
		got := rankByFreshness(tc.metas)
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: rankByFreshness = %v, want %v", tc.name, got, tc.want)
			}
		}
	}
}

func TestCollectResults(t *testing.T) {
	t.Parallel()

	ok := sourceResult[int]{source: SourceFootballData, value: 1}
	failed := sourceResult[int]{source: SourceTheSportsDB, err: ErrNotFound}
	down := sourceResult[int]{source: SourceTheSportsDB, err: fmt.Errorf("wrap: %w", ErrSourceUnavailable)}

	got, err := collectResults([]sourceResult[int]{ok, failed})
	if err != nil || len(got) != 1 || got[0].value != 1 {
		t.Fatalf("expected the successful result only, got %v %v", got, err)
	}

	_, err = collectResults([]sourceResult[int]{failed})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when every source failed, got %v", err)
	}

	_, err = collectResults([]sourceResult[int]{ok, down})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("an unavailable source must abort even when another succeeded, got %v", err)
	}
}

func TestRateLimitedError_IsErrRateLimited(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("fetch squad: %w", &RateLimitedError{Source: SourceFootballData, RetryAfter: time.Second})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited")
	}
	if stepFatal(err) {
		t.Fatalf("rate limiting must not abort a step")
	}
}

func TestSyncReport_ExitCode(t *testing.T) {
	t.Parallel()

	report := SyncReport{ItemsFailed: []ItemFailure{{Step: StateFetchingMatches, Item: "match:x", Reason: "bad"}}}
	if report.ExitCode() != 0 {
		t.Fatalf("item failures alone must not fail the run")
	}
	report.StepsAborted = []State{StateFetchingMatches}
	if report.ExitCode() != 1 {
		t.Fatalf("an aborted step must fail the run")
	}
}

func TestGroupPlayerRecords(t *testing.T) {
	t.Parallel()

	records := []ProviderPlayerRecord{
		{RecordMeta: RecordMeta{Source: SourceTheSportsDB, ProviderID: "34145"}, Name: "Leif Davis"},
		{RecordMeta: RecordMeta{Source: SourceFootballData, ProviderID: "9001"}, Name: "LEIF  DAVIS"},
		{RecordMeta: RecordMeta{Source: SourceTheSportsDB, ProviderID: "1"}, Name: "J. Smith"},
		{RecordMeta: RecordMeta{Source: SourceTheSportsDB, ProviderID: "2"}, Name: "J Smith"},
	}

	groups := groupPlayerRecords(records)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(groups), groups)
	}
	for _, g := range groups {
		if g.key != "leif davis" {
			if len(g.records) != 1 {
				t.Fatalf("same-source namesakes must be split, got %+v", g)
			}
			continue
		}
		if len(g.records) != 2 || g.records[0].Source != SourceFootballData {
			t.Fatalf("expected both sources in priority order, got %+v", g.records)
		}
	}
}
