package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/football-sync/internal/domain/team"
)

type TeamRepository struct {
	st *state
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	item, ok := r.st.teams[teamID]
	return item, ok, nil
}

func (r *TeamRepository) FindByNormalizedName(_ context.Context, normalizedName string) ([]team.Team, error) {
	out := make([]team.Team, 0, 1)
	for _, item := range r.st.teams {
		if item.NormalizedName == normalizedName {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) Upsert(_ context.Context, item team.Team) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.st.teams[item.ID] = item
	return nil
}
