package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/match"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type MatchRepository struct {
	q *sqlx.Tx
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match by id: %w", classify(err))
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) FindByFixture(ctx context.Context, homeTeamID, awayTeamID string, date time.Time) ([]match.Match, error) {
	return r.list(ctx, "select matches by fixture",
		qb.Select("*").From("matches").
			Where(
				qb.Eq("home_team_id", homeTeamID),
				qb.Eq("away_team_id", awayTeamID),
				qb.Eq("match_date", dateOnly(date)),
			).
			OrderBy("id"),
	)
}

func (r *MatchRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]match.Match, error) {
	return r.list(ctx, "select matches by date range",
		qb.Select("*").From("matches").
			Where(qb.Between("match_date", dateOnly(from), dateOnly(to))).
			OrderBy("match_date", "id"),
	)
}

func (r *MatchRepository) list(ctx context.Context, op string, builder *qb.SelectBuilder) ([]match.Match, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []matchTableModel
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

// Upsert writes the match by id. A second id for the same fixture violates
// the (home, away, date) key and is reported as a transaction failure.
func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) error {
	if err := item.Validate(); err != nil {
		return err
	}
	insertModel := matchInsertModel{
		ID:                item.ID,
		SeasonName:        item.SeasonName,
		CompetitionCode:   item.CompetitionCode,
		MatchDate:         dateOnly(item.Date),
		KickoffAt:         nullableTime(item.KickoffAt),
		HomeTeamID:        item.HomeTeamID,
		AwayTeamID:        item.AwayTeamID,
		HomeScore:         item.HomeScore,
		AwayScore:         item.AwayScore,
		HalfTimeHomeScore: item.HalfTimeHomeScore,
		HalfTimeAwayScore: item.HalfTimeAwayScore,
		Status:            string(item.Status),
		Round:             item.Round,
		Venue:             item.Venue,
		Referee:           item.Referee,
		Attendance:        item.Attendance,
		StateSource:       item.StateSource,
		SourceUpdatedAt:   nullableTime(item.SourceUpdatedAt),
	}
	query, args, err := qb.UpsertModel("matches", insertModel, "id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match id=%s: %w", item.ID, classify(err))
	}
	return nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:                row.ID,
		SeasonName:        row.SeasonName,
		CompetitionCode:   row.CompetitionCode,
		Date:              dateFromColumn(row.MatchDate),
		KickoffAt:         nullTimeToTimePtr(row.KickoffAt),
		HomeTeamID:        row.HomeTeamID,
		AwayTeamID:        row.AwayTeamID,
		HomeScore:         nullInt64ToIntPtr(row.HomeScore),
		AwayScore:         nullInt64ToIntPtr(row.AwayScore),
		HalfTimeHomeScore: nullInt64ToIntPtr(row.HalfTimeHomeScore),
		HalfTimeAwayScore: nullInt64ToIntPtr(row.HalfTimeAwayScore),
		Status:            match.Status(row.Status),
		Round:             row.Round,
		Venue:             row.Venue,
		Referee:           row.Referee,
		Attendance:        nullInt64ToIntPtr(row.Attendance),
		StateSource:       row.StateSource,
		SourceUpdatedAt:   nullTimeToTimePtr(row.SourceUpdatedAt),
	}
}
