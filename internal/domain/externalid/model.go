package externalid

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type EntityType string

const (
	EntityTeam   EntityType = "team"
	EntityPlayer EntityType = "player"
	EntityMatch  EntityType = "match"
)

// ErrConflict is returned by Bind when either side of the mapping is already
// bound elsewhere.
var ErrConflict = errors.New("external id already bound")

// Mapping binds one provider id to one internal id. Both
// (EntityType, Source, ProviderID) and (EntityType, Source, InternalID) are
// unique.
type Mapping struct {
	EntityType EntityType
	Source     string
	ProviderID string
	InternalID string
	CreatedAt  time.Time
}

func ParseEntityType(raw string) (EntityType, error) {
	switch EntityType(raw) {
	case EntityTeam, EntityPlayer, EntityMatch:
		return EntityType(raw), nil
	default:
		return "", fmt.Errorf("unknown entity type %q", raw)
	}
}

func (m Mapping) Validate() error {
	if _, err := ParseEntityType(string(m.EntityType)); err != nil {
		return err
	}
	if m.Source == "" || m.ProviderID == "" || m.InternalID == "" {
		return fmt.Errorf("mapping requires source, provider id and internal id")
	}
	return nil
}

type Repository interface {
	Lookup(ctx context.Context, entityType EntityType, source, providerID string) (Mapping, bool, error)
	ListByInternalID(ctx context.Context, entityType EntityType, internalID string) ([]Mapping, error)
	// Bind records a new mapping. Re-binding an identical pair is a no-op.
	Bind(ctx context.Context, item Mapping) error
	// Rebind points an existing provider id at a different internal id and
	// returns the internal id it replaced.
	Rebind(ctx context.Context, item Mapping) (string, error)
}
