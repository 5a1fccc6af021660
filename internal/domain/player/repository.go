package player

import "context"

// Repository describes player persistence inside one unit of work.
type Repository interface {
	GetByID(ctx context.Context, id string) (Player, bool, error)
	FindByNormalizedName(ctx context.Context, normalizedName string) ([]Player, error)
	ListActiveByTeam(ctx context.Context, teamID string) ([]Player, error)
	Upsert(ctx context.Context, item Player) error
}
