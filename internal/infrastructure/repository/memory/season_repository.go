package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/football-sync/internal/domain/season"
)

type SeasonRepository struct {
	st *state
}

func (r *SeasonRepository) GetSeason(_ context.Context, name string) (season.Season, bool, error) {
	item, ok := r.st.seasons[name]
	return item, ok, nil
}

func (r *SeasonRepository) UpsertSeason(_ context.Context, item season.Season) error {
	if item.Name == "" {
		return fmt.Errorf("season name is required")
	}
	r.st.seasons[item.Name] = item
	return nil
}

func (r *SeasonRepository) GetCompetition(_ context.Context, code string) (season.Competition, bool, error) {
	item, ok := r.st.competitions[code]
	return item, ok, nil
}

func (r *SeasonRepository) UpsertCompetition(_ context.Context, item season.Competition) error {
	if item.Code == "" {
		return fmt.Errorf("competition code is required")
	}
	r.st.competitions[item.Code] = item
	return nil
}
