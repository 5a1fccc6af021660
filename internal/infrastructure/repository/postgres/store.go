// Package postgres is the sqlx/lib/pq implementation of usecase.Store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type Store struct {
	db     *sqlx.DB
	logger *logging.Logger
}

var _ usecase.Store = (*Store)(nil)

func NewStore(db *sqlx.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger.Named("postgres")}
}

// WithinTx runs fn in one REPEATABLE READ transaction. Concurrent writers to
// the same rows surface as usecase.ErrTransactionFailure.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx usecase.Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := sqlTx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.WarnContext(ctx, "rollback tx failed", "error", err)
		}
	}()

	if err := fn(ctx, &tx{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	committed = true
	return nil
}

type tx struct {
	q *sqlx.Tx
}

func (t *tx) Teams() team.Repository               { return &TeamRepository{q: t.q} }
func (t *tx) Players() player.Repository           { return &PlayerRepository{q: t.q} }
func (t *tx) Matches() match.Repository            { return &MatchRepository{q: t.q} }
func (t *tx) MatchDetails() matchdetail.Repository { return &MatchDetailRepository{q: t.q} }
func (t *tx) Seasons() season.Repository           { return &SeasonRepository{q: t.q} }
func (t *tx) Standings() standing.Repository       { return &StandingRepository{q: t.q} }
func (t *tx) ExternalIDs() externalid.Repository   { return &ExternalIDRepository{q: t.q} }
func (t *tx) SyncRuns() syncrun.Repository         { return &SyncRunRepository{q: t.q} }
