package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/standing"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type standingTableModel struct {
	CompetitionCode string       `db:"competition_code"`
	SeasonName      string       `db:"season_name"`
	TeamID          string       `db:"team_id"`
	Position        int          `db:"position"`
	Played          int          `db:"played"`
	Won             int          `db:"won"`
	Drawn           int          `db:"drawn"`
	Lost            int          `db:"lost"`
	GoalsFor        int          `db:"goals_for"`
	GoalsAgainst    int          `db:"goals_against"`
	Points          int          `db:"points"`
	Form            string       `db:"form"`
	StateSource     string       `db:"state_source"`
	SourceUpdatedAt sql.NullTime `db:"source_updated_at"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

type standingInsertModel struct {
	CompetitionCode string     `db:"competition_code"`
	SeasonName      string     `db:"season_name"`
	TeamID          string     `db:"team_id"`
	Position        int        `db:"position"`
	Played          int        `db:"played"`
	Won             int        `db:"won"`
	Drawn           int        `db:"drawn"`
	Lost            int        `db:"lost"`
	GoalsFor        int        `db:"goals_for"`
	GoalsAgainst    int        `db:"goals_against"`
	Points          int        `db:"points"`
	Form            string     `db:"form"`
	StateSource     string     `db:"state_source"`
	SourceUpdatedAt *time.Time `db:"source_updated_at"`
}

type StandingRepository struct {
	q *sqlx.Tx
}

func (r *StandingRepository) Get(ctx context.Context, competitionCode, seasonName, teamID string) (standing.Standing, bool, error) {
	query, args, err := qb.Select("*").From("standings").
		Where(
			qb.Eq("competition_code", competitionCode),
			qb.Eq("season_name", seasonName),
			qb.Eq("team_id", teamID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return standing.Standing{}, false, fmt.Errorf("build select standing query: %w", err)
	}

	var row standingTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return standing.Standing{}, false, nil
		}
		return standing.Standing{}, false, fmt.Errorf("select standing: %w", classify(err))
	}
	return standingFromRow(row), true, nil
}

func (r *StandingRepository) ListByCompetition(ctx context.Context, competitionCode, seasonName string) ([]standing.Standing, error) {
	query, args, err := qb.Select("*").From("standings").
		Where(
			qb.Eq("competition_code", competitionCode),
			qb.Eq("season_name", seasonName),
		).
		OrderBy("position", "points DESC", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list standings: %w", classify(err))
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, standingFromRow(row))
	}
	return out, nil
}

func (r *StandingRepository) Upsert(ctx context.Context, item standing.Standing) error {
	if err := item.Validate(); err != nil {
		return err
	}
	insertModel := standingInsertModel{
		CompetitionCode: item.CompetitionCode,
		SeasonName:      item.SeasonName,
		TeamID:          item.TeamID,
		Position:        item.Position,
		Played:          item.Played,
		Won:             item.Won,
		Drawn:           item.Drawn,
		Lost:            item.Lost,
		GoalsFor:        item.GoalsFor,
		GoalsAgainst:    item.GoalsAgainst,
		Points:          item.Points,
		Form:            strings.TrimSpace(item.Form),
		StateSource:     item.StateSource,
		SourceUpdatedAt: nullableTime(item.SourceUpdatedAt),
	}
	query, args, err := qb.UpsertModel("standings", insertModel, "competition_code", "season_name", "team_id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert standing query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert standing competition=%s season=%s team=%s: %w",
			item.CompetitionCode, item.SeasonName, item.TeamID, classify(err))
	}
	return nil
}

func standingFromRow(row standingTableModel) standing.Standing {
	return standing.Standing{
		CompetitionCode: row.CompetitionCode,
		SeasonName:      row.SeasonName,
		TeamID:          row.TeamID,
		Position:        row.Position,
		Played:          row.Played,
		Won:             row.Won,
		Drawn:           row.Drawn,
		Lost:            row.Lost,
		GoalsFor:        row.GoalsFor,
		GoalsAgainst:    row.GoalsAgainst,
		Points:          row.Points,
		Form:            strings.TrimSpace(row.Form),
		StateSource:     row.StateSource,
		SourceUpdatedAt: nullTimeToTimePtr(row.SourceUpdatedAt),
	}
}
