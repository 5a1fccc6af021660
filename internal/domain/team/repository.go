package team

import "context"

// Repository describes team persistence inside one unit of work.
type Repository interface {
	GetByID(ctx context.Context, id string) (Team, bool, error)
	FindByNormalizedName(ctx context.Context, normalizedName string) ([]Team, error)
	Upsert(ctx context.Context, item Team) error
}
