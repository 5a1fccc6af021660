package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/football-sync/internal/domain/player"
)

type PlayerRepository struct {
	st *state
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	item, ok := r.st.players[playerID]
	return item, ok, nil
}

func (r *PlayerRepository) FindByNormalizedName(_ context.Context, normalizedName string) ([]player.Player, error) {
	out := make([]player.Player, 0, 1)
	for _, item := range r.st.players {
		if item.NormalizedName == normalizedName {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) ListActiveByTeam(_ context.Context, teamID string) ([]player.Player, error) {
	out := make([]player.Player, 0)
	for _, item := range r.st.players {
		if item.TeamID == teamID && item.Active() {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, item player.Player) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.st.players[item.ID] = item
	return nil
}
