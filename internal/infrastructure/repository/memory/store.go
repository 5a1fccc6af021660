package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

// Store is a transactional in-memory store. Transactions run one at a time
// against a private copy that replaces the committed state on success.
type Store struct {
	mu        sync.Mutex
	committed *state
}

func NewStore() *Store {
	return &Store{committed: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx usecase.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.committed.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.committed = work
	return nil
}

type mappingKey struct {
	entityType externalid.EntityType
	source     string
	providerID string
}

type standingKey struct {
	competition string
	season      string
	teamID      string
}

type state struct {
	teams        map[string]team.Team
	players      map[string]player.Player
	matches      map[string]match.Match
	details      map[string]matchdetail.Detail
	seasons      map[string]season.Season
	competitions map[string]season.Competition
	standings    map[standingKey]standing.Standing
	mappings     map[mappingKey]externalid.Mapping
	runs         []syncrun.Run
}

func newState() *state {
	return &state{
		teams:        make(map[string]team.Team),
		players:      make(map[string]player.Player),
		matches:      make(map[string]match.Match),
		details:      make(map[string]matchdetail.Detail),
		seasons:      make(map[string]season.Season),
		competitions: make(map[string]season.Competition),
		standings:    make(map[standingKey]standing.Standing),
		mappings:     make(map[mappingKey]externalid.Mapping),
	}
}

// clone copies every table. Rows are values and are replaced whole on write,
// so nested slices and pointers may be shared.
func (s *state) clone() *state {
	out := newState()
	for k, v := range s.teams {
		out.teams[k] = v
	}
	for k, v := range s.players {
		out.players[k] = v
	}
	for k, v := range s.matches {
		out.matches[k] = v
	}
	for k, v := range s.details {
		out.details[k] = v
	}
	for k, v := range s.seasons {
		out.seasons[k] = v
	}
	for k, v := range s.competitions {
		out.competitions[k] = v
	}
	for k, v := range s.standings {
		out.standings[k] = v
	}
	for k, v := range s.mappings {
		out.mappings[k] = v
	}
	out.runs = append(out.runs, s.runs...)
	return out
}

type tx struct {
	st *state
}

func (t *tx) Teams() team.Repository               { return &TeamRepository{st: t.st} }
func (t *tx) Players() player.Repository           { return &PlayerRepository{st: t.st} }
func (t *tx) Matches() match.Repository            { return &MatchRepository{st: t.st} }
func (t *tx) MatchDetails() matchdetail.Repository { return &MatchDetailRepository{st: t.st} }
func (t *tx) Seasons() season.Repository           { return &SeasonRepository{st: t.st} }
func (t *tx) Standings() standing.Repository       { return &StandingRepository{st: t.st} }
func (t *tx) ExternalIDs() externalid.Repository   { return &ExternalIDRepository{st: t.st} }
func (t *tx) SyncRuns() syncrun.Repository         { return &SyncRunRepository{st: t.st} }
