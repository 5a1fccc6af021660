package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/team"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type TeamRepository struct {
	q *sqlx.Tx
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team by id: %w", classify(err))
	}
	return teamFromRow(row), true, nil
}

func (r *TeamRepository) FindByNormalizedName(ctx context.Context, normalizedName string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("normalized_name", normalizedName)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by name query: %w", err)
	}

	var rows []teamTableModel
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by name: %w", classify(err))
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}
	return out, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) error {
	if err := item.Validate(); err != nil {
		return err
	}
	insertModel := teamInsertModel{
		ID:              item.ID,
		Name:            item.Name,
		NormalizedName:  item.NormalizedName,
		ShortName:       item.ShortName,
		City:            item.City,
		Stadium:         item.Stadium,
		Country:         item.Country,
		FoundedYear:     item.FoundedYear,
		Website:         item.Website,
		ClubColors:      item.ClubColors,
		SourceUpdatedAt: nullableTime(item.SourceUpdatedAt),
	}
	query, args, err := qb.UpsertModel("teams", insertModel, "id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert team query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team id=%s: %w", item.ID, classify(err))
	}
	return nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:              row.ID,
		Name:            row.Name,
		NormalizedName:  row.NormalizedName,
		ShortName:       row.ShortName,
		City:            row.City,
		Stadium:         row.Stadium,
		Country:         row.Country,
		FoundedYear:     nullInt64ToIntPtr(row.FoundedYear),
		Website:         row.Website,
		ClubColors:      row.ClubColors,
		SourceUpdatedAt: nullTimeToTimePtr(row.SourceUpdatedAt),
	}
}
