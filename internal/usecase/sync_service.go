package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
	"github.com/riskibarqy/football-sync/internal/platform/id"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
)

type State string

const (
	StateIdle                 State = "idle"
	StateFetchingSeasons      State = "fetching_seasons"
	StateFetchingTeams        State = "fetching_teams"
	StateFetchingMatches      State = "fetching_matches"
	StateFetchingMatchDetails State = "fetching_match_details"
	StateFetchingStats        State = "fetching_stats"
	StateCommitting           State = "committing"
)

func FailedState(step State) State {
	return State("failed(" + string(step) + ")")
}

type EntityType string

const (
	EntityTeam        EntityType = "team"
	EntityPlayer      EntityType = "player"
	EntityMatch       EntityType = "match"
	EntityMatchDetail EntityType = "match_detail"
	EntityStanding    EntityType = "standing"
)

func ParseEntityTypes(raw []string) ([]EntityType, error) {
	out := make([]EntityType, 0, len(raw))
	seen := make(map[EntityType]struct{}, len(raw))
	for _, item := range raw {
		v := EntityType(strings.ToLower(strings.TrimSpace(item)))
		if v == "" {
			continue
		}
		switch v {
		case EntityTeam, EntityPlayer, EntityMatch, EntityMatchDetail, EntityStanding:
		default:
			return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, item)
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// SyncScope bounds one run. An empty EntityTypes means all of them.
type SyncScope struct {
	From        time.Time    `json:"from" validate:"required"`
	To          time.Time    `json:"to" validate:"required,gtfield=From"`
	EntityTypes []EntityType `json:"entity_types,omitempty" validate:"dive,oneof=team player match match_detail standing"`
}

func (s SyncScope) includes(t EntityType) bool {
	if len(s.EntityTypes) == 0 {
		return true
	}
	for _, item := range s.EntityTypes {
		if item == t {
			return true
		}
	}
	return false
}

func (s SyncScope) contains(t time.Time) bool {
	return !t.Before(s.From) && !t.After(s.To)
}

type ItemFailure struct {
	Step   State  `json:"step"`
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

type SyncReport struct {
	RunID          string        `json:"run_id"`
	Scope          SyncScope     `json:"scope"`
	ItemsProcessed int           `json:"items_processed"`
	ItemsChanged   int           `json:"items_changed"`
	ItemsFailed    []ItemFailure `json:"items_failed"`
	StepsAborted   []State       `json:"steps_aborted"`
	FinalState     State         `json:"final_state"`
	FailedStep     State         `json:"failed_step,omitempty"`
	FailureReason  string        `json:"failure_reason,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// ExitCode is 1 when any step aborted, 0 otherwise. Item failures alone do
// not fail a run.
func (r SyncReport) ExitCode() int {
	if len(r.StepsAborted) > 0 {
		return 1
	}
	return 0
}

type SyncConfig struct {
	Team         TeamRef
	Competitions []season.Competition
	MaxWorkers   int
	// RateLimitRetries bounds retries of one call after ErrRateLimited.
	RateLimitRetries     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

func (c SyncConfig) normalized() SyncConfig {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 4
	}
	if c.RateLimitRetries < 0 {
		c.RateLimitRetries = 0
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = time.Second
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = time.Minute
	}
	return c
}

// SyncService drives the refresh cycle across every configured source. Only
// one run executes at a time.
type SyncService struct {
	store    Store
	adapters []SourceAdapter
	limiter  Limiter
	resolver *IdentityResolver
	merger   *MergeEngine
	ids      id.Generator
	cfg      SyncConfig
	logger   *logging.Logger
	now      func() time.Time

	running atomic.Bool
	stateMu sync.RWMutex
	state   State
}

func NewSyncService(
	store Store,
	adapters []SourceAdapter,
	limiter Limiter,
	resolver *IdentityResolver,
	merger *MergeEngine,
	ids id.Generator,
	cfg SyncConfig,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if resolver == nil {
		resolver = NewIdentityResolver(ids, logger)
	}
	if merger == nil {
		merger = NewMergeEngine()
	}

	ordered := append([]SourceAdapter(nil), adapters...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source().priority() < ordered[j].Source().priority()
	})

	return &SyncService{
		store:    store,
		adapters: ordered,
		limiter:  limiter,
		resolver: resolver,
		merger:   merger,
		ids:      ids,
		cfg:      cfg.normalized(),
		logger:   logger.Named("sync"),
		now:      time.Now,
		state:    StateIdle,
	}
}

func (s *SyncService) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *SyncService) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

var scopeValidator = validator.New()

type syncStep struct {
	state State
	run   func(ctx context.Context, run *syncRun) error
}

// RunSync executes one full cycle. The error return is reserved for an
// invalid scope or a run already in progress; step failures land in the
// report.
func (s *SyncService) RunSync(ctx context.Context, scope SyncScope) (SyncReport, error) {
	ctx, span := startSpan(ctx, "usecase.SyncService.RunSync")
	defer span.End()

	scope.From, scope.To = scope.From.UTC(), scope.To.UTC()
	if err := scopeValidator.Struct(scope); err != nil {
		return SyncReport{}, fmt.Errorf("%w: sync scope: %v", ErrInvalidInput, err)
	}
	if s.store == nil || s.limiter == nil {
		return SyncReport{}, fmt.Errorf("%w: sync service is not fully configured", ErrInvalidInput)
	}
	if !s.running.CompareAndSwap(false, true) {
		return SyncReport{}, ErrSyncInProgress
	}
	defer s.running.Store(false)
	defer s.setState(StateIdle)

	runID, err := s.ids.NewID()
	if err != nil {
		return SyncReport{}, fmt.Errorf("generate run id: %w", err)
	}
	run := newSyncRun(runID, scope, s.now().UTC())
	ctx = logging.ContextWith(ctx, "run_id", runID)
	s.logger.InfoContext(ctx, "sync run started",
		"from", scope.From.Format(time.RFC3339),
		"to", scope.To.Format(time.RFC3339),
		"entity_types", fmt.Sprint(scope.EntityTypes),
		"sources", len(s.adapters),
	)

	steps := []syncStep{{state: StateFetchingSeasons, run: s.syncSeasons}}
	if scope.includes(EntityTeam) || scope.includes(EntityPlayer) {
		steps = append(steps, syncStep{state: StateFetchingTeams, run: s.syncTeams})
	}
	if scope.includes(EntityMatch) {
		steps = append(steps, syncStep{state: StateFetchingMatches, run: s.syncMatches})
	}
	if scope.includes(EntityMatchDetail) {
		steps = append(steps, syncStep{state: StateFetchingMatchDetails, run: s.syncMatchDetails})
	}
	if scope.includes(EntityStanding) {
		steps = append(steps, syncStep{state: StateFetchingStats, run: s.syncStandings})
	}

	for _, step := range steps {
		s.setState(step.state)
		run.beginStep(s.now().UTC())
		s.logger.InfoContext(ctx, "sync step started", "step", string(step.state))

		if err := s.runStep(ctx, step, run); err != nil {
			run.abort(step.state, err)
			s.setState(FailedState(step.state))
			s.logger.ErrorContext(ctx, "sync step aborted", "step", string(step.state), "error", err)
			break
		}
		if err := ctx.Err(); err != nil {
			run.abort(step.state, err)
			s.setState(FailedState(step.state))
			s.logger.ErrorContext(ctx, "sync run cancelled", "step", string(step.state), "error", err)
			break
		}
	}

	report := s.commit(context.WithoutCancel(ctx), run)
	span.SetAttributes(
		attribute.String("sync.run_id", report.RunID),
		attribute.String("sync.final_state", string(report.FinalState)),
		attribute.Int("sync.items_changed", report.ItemsChanged),
		attribute.Int("sync.items_failed", len(report.ItemsFailed)),
	)
	s.logger.InfoContext(ctx, "sync run finished",
		"final_state", string(report.FinalState),
		"items_processed", report.ItemsProcessed,
		"items_changed", report.ItemsChanged,
		"items_failed", len(report.ItemsFailed),
		"steps_aborted", len(report.StepsAborted),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (s *SyncService) runStep(ctx context.Context, step syncStep, run *syncRun) (err error) {
	ctx, span := startSpan(ctx, "usecase.SyncService."+string(step.state), stepAttr(step.state))
	defer func() { endSpan(span, err) }()

	return step.run(logging.ContextWith(ctx, "step", string(step.state)), run)
}

// commit is the Committing step: it seals the report and persists the run
// history row.
func (s *SyncService) commit(ctx context.Context, run *syncRun) SyncReport {
	if !run.failed() {
		s.setState(StateCommitting)
	}
	report := run.finish(s.now().UTC())

	encoded, err := encodeReport(report)
	if err == nil {
		err = s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
			return tx.SyncRuns().Insert(ctx, syncrun.Run{
				ID:          report.RunID,
				StartedAt:   report.StartedAt,
				FinishedAt:  report.FinishedAt,
				ScopeFrom:   report.Scope.From,
				ScopeTo:     report.Scope.To,
				EntityTypes: entityTypeStrings(report.Scope.EntityTypes),
				FinalState:  string(report.FinalState),
				FailedStep:  string(report.FailedStep),
				ExitCode:    report.ExitCode(),
				Report:      encoded,
			})
		})
	}
	if err != nil && !run.failed() {
		s.logger.ErrorContext(ctx, "persist sync run failed", "step", string(StateCommitting), "error", err)
		run.abort(StateCommitting, err)
		report = run.finish(report.FinishedAt)
	} else if err != nil {
		s.logger.ErrorContext(ctx, "persist sync run failed", "step", string(StateCommitting), "error", err)
	}
	return report
}

func entityTypeStrings(items []EntityType) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	return out
}

// syncRun collects the outcome of one RunSync call.
type syncRun struct {
	mu        sync.Mutex
	report    SyncReport
	fetchedAt time.Time

	trackedTeamID string
}

func newSyncRun(runID string, scope SyncScope, startedAt time.Time) *syncRun {
	return &syncRun{
		report: SyncReport{
			RunID:       runID,
			Scope:       scope,
			StartedAt:   startedAt,
			ItemsFailed: []ItemFailure{},
		},
	}
}

// beginStep stamps every record fetched during the step with the same
// FetchedAt so that source priority decides ties between them.
func (r *syncRun) beginStep(at time.Time) {
	r.mu.Lock()
	r.fetchedAt = at
	r.mu.Unlock()
}

func (r *syncRun) stepFetchedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchedAt
}

func (r *syncRun) setTrackedTeam(id string) {
	r.mu.Lock()
	r.trackedTeamID = id
	r.mu.Unlock()
}

func (r *syncRun) trackedTeam() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trackedTeamID
}

func (r *syncRun) processed(changed bool) {
	r.mu.Lock()
	r.report.ItemsProcessed++
	if changed {
		r.report.ItemsChanged++
	}
	r.mu.Unlock()
}

func (r *syncRun) fail(step State, item, reason string) {
	r.mu.Lock()
	r.report.ItemsFailed = append(r.report.ItemsFailed, ItemFailure{Step: step, Item: item, Reason: reason})
	r.mu.Unlock()
}

func (r *syncRun) abort(step State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.StepsAborted = append(r.report.StepsAborted, step)
	if r.report.FailedStep == "" {
		r.report.FailedStep = step
		r.report.FailureReason = err.Error()
	}
}

func (r *syncRun) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.FailedStep != ""
}

func (r *syncRun) finish(at time.Time) SyncReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FinishedAt = at
	r.report.FinalState = StateIdle
	if r.report.FailedStep != "" {
		r.report.FinalState = FailedState(r.report.FailedStep)
	}
	sort.SliceStable(r.report.ItemsFailed, func(i, j int) bool {
		a, b := r.report.ItemsFailed[i], r.report.ItemsFailed[j]
		if a.Step != b.Step {
			return stepOrder(a.Step) < stepOrder(b.Step)
		}
		return a.Item < b.Item
	})
	out := r.report
	out.ItemsFailed = append([]ItemFailure{}, r.report.ItemsFailed...)
	out.StepsAborted = append([]State(nil), r.report.StepsAborted...)
	return out
}

func stepOrder(s State) int {
	switch s {
	case StateFetchingSeasons:
		return 0
	case StateFetchingTeams:
		return 1
	case StateFetchingMatches:
		return 2
	case StateFetchingMatchDetails:
		return 3
	case StateFetchingStats:
		return 4
	case StateCommitting:
		return 5
	default:
		return 6
	}
}

// syncItem is one unit of work inside a step.
type syncItem struct {
	key string
	run func(ctx context.Context) (changed bool, err error)
}

const reasonStepAborted = "not started: step aborted"

// runItems executes items on a bounded ants pool. Item failures are recorded
// and skipped. The first step-fatal error stops new items from starting and
// is returned.
func (s *SyncService) runItems(ctx context.Context, run *syncRun, step State, items []syncItem) error {
	if len(items) == 0 {
		return ctx.Err()
	}

	workerPool, err := ants.NewPool(normalizeWorkerCount(s.cfg.MaxWorkers, len(items)))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var (
		aborted   atomic.Bool
		abortOnce sync.Once
		abortErr  error
		workers   sync.WaitGroup
	)
	for _, item := range items {
		item := item
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			if aborted.Load() {
				run.fail(step, item.key, reasonStepAborted)
				return
			}
			if err := ctx.Err(); err != nil {
				run.fail(step, item.key, "not started: "+err.Error())
				return
			}

			changed, err := item.run(ctx)
			if err != nil {
				if stepFatal(err) {
					abortOnce.Do(func() {
						abortErr = err
						aborted.Store(true)
					})
				}
				run.fail(step, item.key, err.Error())
				s.logger.WarnContext(ctx, "sync item failed",
					"item", item.key,
					"reason", err.Error(),
				)
				return
			}
			run.processed(changed)
		}); err != nil {
			workers.Done()
			run.fail(step, item.key, "not started: "+err.Error())
		}
	}
	workers.Wait()

	if abortErr != nil {
		return abortErr
	}
	return ctx.Err()
}

func normalizeWorkerCount(requested, tasks int) int {
	if requested <= 0 {
		requested = 4
	}
	if tasks > 0 && requested > tasks {
		return tasks
	}
	return requested
}

// withinTx runs fn in one transaction and retries once on
// ErrTransactionFailure.
func (s *SyncService) withinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := s.store.WithinTx(ctx, fn)
	if err == nil || !errors.Is(err, ErrTransactionFailure) {
		return err
	}
	s.logger.DebugContext(ctx, "retrying transaction", "error", err)
	return s.store.WithinTx(ctx, fn)
}

// hintedBackOff is an exponential back-off that never waits less than the
// provider's latest Retry-After hint.
type hintedBackOff struct {
	base *backoff.ExponentialBackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.base.NextBackOff()
	if b.hint > next {
		next = b.hint
	}
	b.hint = 0
	return next
}

func (b *hintedBackOff) Reset() {
	b.base.Reset()
	b.hint = 0
}

// callSource acquires the source's rate limit before every attempt and
// retries ErrRateLimited with back-off. Any other error is returned as is.
func callSource[T any](ctx context.Context, s *SyncService, source Source, fn func(ctx context.Context) (T, error)) (T, error) {
	base := backoff.NewExponentialBackOff()
	base.InitialInterval = s.cfg.RetryInitialInterval
	base.MaxInterval = s.cfg.RetryMaxInterval
	policy := &hintedBackOff{base: base}

	op := func() (T, error) {
		var zero T
		if err := s.limiter.Acquire(ctx, string(source)); err != nil {
			return zero, backoff.Permanent(fmt.Errorf("acquire %s rate limit: %w", source, err))
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return zero, backoff.Permanent(err)
		}
		var limited *RateLimitedError
		if errors.As(err, &limited) {
			policy.hint = limited.RetryAfter
		}
		s.logger.DebugContext(ctx, "source rate limited", "source", string(source), "error", err)
		return zero, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.cfg.RateLimitRetries+1)),
	)
}

type sourceResult[T any] struct {
	source Source
	value  T
	err    error
}

// fetchFromSources calls fn once per adapter concurrently. Results come back
// in source priority order.
func fetchFromSources[T any](
	ctx context.Context,
	s *SyncService,
	adapters []SourceAdapter,
	fn func(ctx context.Context, adapter SourceAdapter) (T, error),
) []sourceResult[T] {
	p := pool.NewWithResults[sourceResult[T]]().WithMaxGoroutines(len(adapters) + 1)
	for _, adapter := range adapters {
		adapter := adapter
		p.Go(func() sourceResult[T] {
			v, err := callSource(ctx, s, adapter.Source(), func(ctx context.Context) (T, error) {
				return fn(ctx, adapter)
			})
			return sourceResult[T]{source: adapter.Source(), value: v, err: err}
		})
	}
	results := p.Wait()
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].source.priority() < results[j].source.priority()
	})
	return results
}

// collectResults splits source results. A step-fatal error from any source
// wins; otherwise per-source errors are only returned when no source
// succeeded.
func collectResults[T any](results []sourceResult[T]) ([]sourceResult[T], error) {
	ok := make([]sourceResult[T], 0, len(results))
	var failures []error
	for _, r := range results {
		if r.err == nil {
			ok = append(ok, r)
			continue
		}
		if stepFatal(r.err) || runFatal(r.err) {
			return nil, r.err
		}
		failures = append(failures, fmt.Errorf("%s: %w", r.source, r.err))
	}
	switch {
	case len(ok) > 0 || len(failures) == 0:
		return ok, nil
	case len(failures) == 1:
		return nil, failures[0]
	default:
		return nil, errors.Join(failures...)
	}
}
