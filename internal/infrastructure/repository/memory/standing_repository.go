package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/football-sync/internal/domain/standing"
)

type StandingRepository struct {
	st *state
}

func (r *StandingRepository) Get(_ context.Context, competitionCode, seasonName, teamID string) (standing.Standing, bool, error) {
	item, ok := r.st.standings[standingKey{competition: competitionCode, season: seasonName, teamID: teamID}]
	return item, ok, nil
}

func (r *StandingRepository) ListByCompetition(_ context.Context, competitionCode, seasonName string) ([]standing.Standing, error) {
	out := make([]standing.Standing, 0)
	for key, item := range r.st.standings {
		if key.competition == competitionCode && key.season == seasonName {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *StandingRepository) Upsert(_ context.Context, item standing.Standing) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.st.standings[standingKey{competition: item.CompetitionCode, season: item.SeasonName, teamID: item.TeamID}] = item
	return nil
}
