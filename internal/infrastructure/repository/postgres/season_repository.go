package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/season"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type seasonTableModel struct {
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type competitionTableModel struct {
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type SeasonRepository struct {
	q *sqlx.Tx
}

func (r *SeasonRepository) GetSeason(ctx context.Context, name string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build select season query: %w", err)
	}

	var row seasonTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("select season: %w", classify(err))
	}
	return season.Season{
		Name:      row.Name,
		StartDate: dateFromColumn(row.StartDate),
		EndDate:   dateFromColumn(row.EndDate),
	}, true, nil
}

func (r *SeasonRepository) UpsertSeason(ctx context.Context, item season.Season) error {
	if item.Name == "" {
		return fmt.Errorf("season name is required")
	}
	query, args, err := qb.InsertInto("seasons").
		Columns("name", "start_date", "end_date").
		Values(item.Name, dateOnly(item.StartDate), dateOnly(item.EndDate)).
		OnConflict("name").
		DoUpdate("start_date", "end_date").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert season query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert season name=%s: %w", item.Name, classify(err))
	}
	return nil
}

func (r *SeasonRepository) GetCompetition(ctx context.Context, code string) (season.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competitions").
		Where(qb.Eq("code", code)).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Competition{}, false, fmt.Errorf("build select competition query: %w", err)
	}

	var row competitionTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Competition{}, false, nil
		}
		return season.Competition{}, false, fmt.Errorf("select competition: %w", classify(err))
	}
	return season.Competition{Code: row.Code, Name: row.Name}, true, nil
}

func (r *SeasonRepository) UpsertCompetition(ctx context.Context, item season.Competition) error {
	if item.Code == "" {
		return fmt.Errorf("competition code is required")
	}
	query, args, err := qb.InsertInto("competitions").
		Columns("code", "name").
		Values(item.Code, item.Name).
		OnConflict("code").
		DoUpdate("name").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert competition query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert competition code=%s: %w", item.Code, classify(err))
	}
	return nil
}
