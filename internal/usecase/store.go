package usecase

import (
	"context"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
	"github.com/riskibarqy/football-sync/internal/domain/team"
)

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Teams() team.Repository
	Players() player.Repository
	Matches() match.Repository
	MatchDetails() matchdetail.Repository
	Seasons() season.Repository
	Standings() standing.Repository
	ExternalIDs() externalid.Repository
	SyncRuns() syncrun.Repository
}

// Store runs fn inside one transaction. A nil return commits, anything else
// rolls back. Commit conflicts are reported as ErrTransactionFailure.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Limiter paces outbound calls per source.
type Limiter interface {
	Acquire(ctx context.Context, source string) error
}
