package memory

import (
	"context"

	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
)

type MatchDetailRepository struct {
	st *state
}

func (r *MatchDetailRepository) Get(_ context.Context, matchID string) (matchdetail.Detail, bool, error) {
	item, ok := r.st.details[matchID]
	return item, ok, nil
}

func (r *MatchDetailRepository) Replace(_ context.Context, detail matchdetail.Detail) error {
	if err := detail.Validate(); err != nil {
		return err
	}
	if detail.Empty() && len(detail.PlayerStats) == 0 {
		delete(r.st.details, detail.MatchID)
		return nil
	}
	r.st.details[detail.MatchID] = detail
	return nil
}
