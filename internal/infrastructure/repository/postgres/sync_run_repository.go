package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type syncRunTableModel struct {
	ID          string         `db:"id"`
	StartedAt   time.Time      `db:"started_at"`
	FinishedAt  time.Time      `db:"finished_at"`
	ScopeFrom   time.Time      `db:"scope_from"`
	ScopeTo     time.Time      `db:"scope_to"`
	EntityTypes pq.StringArray `db:"entity_types"`
	FinalState  string         `db:"final_state"`
	FailedStep  string         `db:"failed_step"`
	ExitCode    int            `db:"exit_code"`
	Report      []byte         `db:"report"`
}

type syncRunInsertModel struct {
	ID          string    `db:"id"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	ScopeFrom   time.Time `db:"scope_from"`
	ScopeTo     time.Time `db:"scope_to"`
	EntityTypes any       `db:"entity_types"`
	FinalState  string    `db:"final_state"`
	FailedStep  string    `db:"failed_step"`
	ExitCode    int       `db:"exit_code"`
	// Report is text so the driver sends it as JSON rather than bytea.
	Report string `db:"report"`
}

type SyncRunRepository struct {
	q *sqlx.Tx
}

func (r *SyncRunRepository) Insert(ctx context.Context, item syncrun.Run) error {
	report := string(item.Report)
	if report == "" {
		report = "{}"
	}
	entityTypes := item.EntityTypes
	if entityTypes == nil {
		entityTypes = []string{}
	}
	insertModel := syncRunInsertModel{
		ID:          item.ID,
		StartedAt:   item.StartedAt.UTC(),
		FinishedAt:  item.FinishedAt.UTC(),
		ScopeFrom:   item.ScopeFrom.UTC(),
		ScopeTo:     item.ScopeTo.UTC(),
		EntityTypes: pq.Array(entityTypes),
		FinalState:  item.FinalState,
		FailedStep:  item.FailedStep,
		ExitCode:    item.ExitCode,
		Report:      report,
	}
	query, args, err := qb.InsertModel("sync_runs", insertModel).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run id=%s: %w", item.ID, classify(err))
	}
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	query, args, err := qb.Select("*").From("sync_runs").
		OrderBy("started_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", classify(err))
	}

	out := make([]syncrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncrun.Run{
			ID:          row.ID,
			StartedAt:   row.StartedAt.UTC(),
			FinishedAt:  row.FinishedAt.UTC(),
			ScopeFrom:   row.ScopeFrom.UTC(),
			ScopeTo:     row.ScopeTo.UTC(),
			EntityTypes: []string(row.EntityTypes),
			FinalState:  row.FinalState,
			FailedStep:  row.FailedStep,
			ExitCode:    row.ExitCode,
			Report:      row.Report,
		})
	}
	return out, nil
}
