package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/player"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type PlayerRepository struct {
	q *sqlx.Tx
}

func (r *PlayerRepository) GetByID(ctx context.Context, id string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player by id query: %w", err)
	}

	var row playerTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player by id: %w", classify(err))
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) FindByNormalizedName(ctx context.Context, normalizedName string) ([]player.Player, error) {
	return r.list(ctx, "select players by name",
		qb.Select("*").From("players").
			Where(qb.Eq("normalized_name", normalizedName)).
			OrderBy("id"),
	)
}

func (r *PlayerRepository) ListActiveByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	return r.list(ctx, "select active players by team",
		qb.Select("*").From("players").
			Where(
				qb.Eq("team_id", teamID),
				qb.IsNull("left_at"),
			).
			OrderBy("id"),
	)
}

func (r *PlayerRepository) list(ctx context.Context, op string, builder *qb.SelectBuilder) ([]player.Player, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []playerTableModel
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, item player.Player) error {
	if err := item.Validate(); err != nil {
		return err
	}
	insertModel := playerInsertModel{
		ID:              item.ID,
		Name:            item.Name,
		NormalizedName:  item.NormalizedName,
		DateOfBirth:     nullableDate(item.DateOfBirth),
		Nationality:     item.Nationality,
		Position:        string(item.Position),
		SquadNumber:     item.SquadNumber,
		TeamID:          nullableString(item.TeamID),
		JoinedAt:        nullableTime(item.JoinedAt),
		LeftAt:          nullableTime(item.LeftAt),
		SourceUpdatedAt: nullableTime(item.SourceUpdatedAt),
	}
	query, args, err := qb.UpsertModel("players", insertModel, "id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert player query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player id=%s: %w", item.ID, classify(err))
	}
	return nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:              row.ID,
		Name:            row.Name,
		NormalizedName:  row.NormalizedName,
		DateOfBirth:     nullDateToTimePtr(row.DateOfBirth),
		Nationality:     row.Nationality,
		Position:        player.Position(row.Position),
		SquadNumber:     nullInt64ToIntPtr(row.SquadNumber),
		TeamID:          row.TeamID.String,
		JoinedAt:        nullTimeToTimePtr(row.JoinedAt),
		LeftAt:          nullTimeToTimePtr(row.LeftAt),
		SourceUpdatedAt: nullTimeToTimePtr(row.SourceUpdatedAt),
	}
}
