package season

import "context"

type Repository interface {
	GetSeason(ctx context.Context, name string) (Season, bool, error)
	UpsertSeason(ctx context.Context, item Season) error
	GetCompetition(ctx context.Context, code string) (Competition, bool, error)
	UpsertCompetition(ctx context.Context, item Competition) error
}
