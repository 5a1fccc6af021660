package match

import (
	"context"
	"time"
)

// Repository describes match persistence inside one unit of work.
type Repository interface {
	GetByID(ctx context.Context, id string) (Match, bool, error)
	FindByFixture(ctx context.Context, homeTeamID, awayTeamID string, date time.Time) ([]Match, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Match, error)
	Upsert(ctx context.Context, item Match) error
}
