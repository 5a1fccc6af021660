package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type ExternalIDRepository struct {
	st *state
}

func (r *ExternalIDRepository) Lookup(_ context.Context, entityType externalid.EntityType, source, providerID string) (externalid.Mapping, bool, error) {
	item, ok := r.st.mappings[mappingKey{entityType: entityType, source: source, providerID: providerID}]
	return item, ok, nil
}

func (r *ExternalIDRepository) ListByInternalID(_ context.Context, entityType externalid.EntityType, internalID string) ([]externalid.Mapping, error) {
	out := make([]externalid.Mapping, 0, 2)
	for _, item := range r.st.mappings {
		if item.EntityType == entityType && item.InternalID == internalID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].ProviderID < out[j].ProviderID
	})
	return out, nil
}

func (r *ExternalIDRepository) Bind(_ context.Context, item externalid.Mapping) error {
	if err := item.Validate(); err != nil {
		return err
	}
	key := mappingKey{entityType: item.EntityType, source: item.Source, providerID: item.ProviderID}
	if existing, ok := r.st.mappings[key]; ok {
		if existing.InternalID == item.InternalID {
			return nil
		}
		return conflict(fmt.Errorf("%w: %s %s:%s is bound to %s",
			externalid.ErrConflict, item.EntityType, item.Source, item.ProviderID, existing.InternalID))
	}
	for _, other := range r.st.mappings {
		if other.EntityType == item.EntityType && other.Source == item.Source && other.InternalID == item.InternalID {
			return conflict(fmt.Errorf("%w: %s %s already has %s id %s",
				externalid.ErrConflict, item.EntityType, item.InternalID, item.Source, other.ProviderID))
		}
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	r.st.mappings[key] = item
	return nil
}

func (r *ExternalIDRepository) Rebind(_ context.Context, item externalid.Mapping) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	key := mappingKey{entityType: item.EntityType, source: item.Source, providerID: item.ProviderID}
	for otherKey, other := range r.st.mappings {
		if otherKey != key && other.EntityType == item.EntityType && other.Source == item.Source && other.InternalID == item.InternalID {
			return "", conflict(fmt.Errorf("%w: %s %s already has %s id %s",
				externalid.ErrConflict, item.EntityType, item.InternalID, item.Source, other.ProviderID))
		}
	}

	previous := ""
	if existing, ok := r.st.mappings[key]; ok {
		previous = existing.InternalID
		item.CreatedAt = existing.CreatedAt
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	r.st.mappings[key] = item
	return previous, nil
}

func conflict(err error) error {
	return errors.Mark(err, usecase.ErrTransactionFailure)
}
