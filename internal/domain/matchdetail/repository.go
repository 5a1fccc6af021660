package matchdetail

import "context"

type Repository interface {
	Get(ctx context.Context, matchID string) (Detail, bool, error)
	// Replace swaps every child row of the match for the given set.
	Replace(ctx context.Context, detail Detail) error
}
