package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type externalIDTableModel struct {
	EntityType string    `db:"entity_type"`
	Source     string    `db:"source"`
	ProviderID string    `db:"provider_id"`
	InternalID string    `db:"internal_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type ExternalIDRepository struct {
	q *sqlx.Tx
}

func (r *ExternalIDRepository) Lookup(ctx context.Context, entityType externalid.EntityType, source, providerID string) (externalid.Mapping, bool, error) {
	query, args, err := qb.Select("*").From("external_ids").
		Where(
			qb.Eq("entity_type", string(entityType)),
			qb.Eq("source", source),
			qb.Eq("provider_id", providerID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return externalid.Mapping{}, false, fmt.Errorf("build lookup external id query: %w", err)
	}

	var row externalIDTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return externalid.Mapping{}, false, nil
		}
		return externalid.Mapping{}, false, fmt.Errorf("lookup external id: %w", classify(err))
	}
	return mappingFromRow(row), true, nil
}

func (r *ExternalIDRepository) ListByInternalID(ctx context.Context, entityType externalid.EntityType, internalID string) ([]externalid.Mapping, error) {
	query, args, err := qb.Select("*").From("external_ids").
		Where(
			qb.Eq("entity_type", string(entityType)),
			qb.Eq("internal_id", internalID),
		).
		OrderBy("source", "provider_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list external ids query: %w", err)
	}

	var rows []externalIDTableModel
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list external ids: %w", classify(err))
	}

	out := make([]externalid.Mapping, 0, len(rows))
	for _, row := range rows {
		out = append(out, mappingFromRow(row))
	}
	return out, nil
}

func (r *ExternalIDRepository) Bind(ctx context.Context, item externalid.Mapping) error {
	if err := item.Validate(); err != nil {
		return err
	}
	existing, ok, err := r.Lookup(ctx, item.EntityType, item.Source, item.ProviderID)
	if err != nil {
		return err
	}
	if ok {
		if existing.InternalID == item.InternalID {
			return nil
		}
		return conflict(fmt.Errorf("%w: %s %s:%s is bound to %s",
			externalid.ErrConflict, item.EntityType, item.Source, item.ProviderID, existing.InternalID))
	}
	if other, ok, err := r.bySourceAndInternalID(ctx, item); err != nil {
		return err
	} else if ok {
		return conflict(fmt.Errorf("%w: %s %s already has %s id %s",
			externalid.ErrConflict, item.EntityType, item.InternalID, item.Source, other.ProviderID))
	}

	query, args, err := qb.InsertInto("external_ids").
		Columns("entity_type", "source", "provider_id", "internal_id").
		Values(string(item.EntityType), item.Source, item.ProviderID, item.InternalID).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert external id query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert external id %s %s:%s: %w", item.EntityType, item.Source, item.ProviderID, classify(err))
	}
	return nil
}

func (r *ExternalIDRepository) Rebind(ctx context.Context, item externalid.Mapping) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	if other, ok, err := r.bySourceAndInternalID(ctx, item); err != nil {
		return "", err
	} else if ok && other.ProviderID != item.ProviderID {
		return "", conflict(fmt.Errorf("%w: %s %s already has %s id %s",
			externalid.ErrConflict, item.EntityType, item.InternalID, item.Source, other.ProviderID))
	}

	previous := ""
	existing, ok, err := r.Lookup(ctx, item.EntityType, item.Source, item.ProviderID)
	if err != nil {
		return "", err
	}
	if ok {
		previous = existing.InternalID
	}

	query, args, err := qb.InsertInto("external_ids").
		Columns("entity_type", "source", "provider_id", "internal_id").
		Values(string(item.EntityType), item.Source, item.ProviderID, item.InternalID).
		OnConflict("entity_type", "source", "provider_id").
		DoUpdate("internal_id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build rebind external id query: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("rebind external id %s %s:%s: %w", item.EntityType, item.Source, item.ProviderID, classify(err))
	}
	return previous, nil
}

func (r *ExternalIDRepository) bySourceAndInternalID(ctx context.Context, item externalid.Mapping) (externalid.Mapping, bool, error) {
	query, args, err := qb.Select("*").From("external_ids").
		Where(
			qb.Eq("entity_type", string(item.EntityType)),
			qb.Eq("source", item.Source),
			qb.Eq("internal_id", item.InternalID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return externalid.Mapping{}, false, fmt.Errorf("build select external id by internal id query: %w", err)
	}

	var row externalIDTableModel
	if err := r.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return externalid.Mapping{}, false, nil
		}
		return externalid.Mapping{}, false, fmt.Errorf("select external id by internal id: %w", classify(err))
	}
	return mappingFromRow(row), true, nil
}

func conflict(err error) error {
	return errors.Mark(err, usecase.ErrTransactionFailure)
}

func mappingFromRow(row externalIDTableModel) externalid.Mapping {
	return externalid.Mapping{
		EntityType: externalid.EntityType(row.EntityType),
		Source:     row.Source,
		ProviderID: row.ProviderID,
		InternalID: row.InternalID,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}
