package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type MatchRepository struct {
	st *state
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	item, ok := r.st.matches[matchID]
	return item, ok, nil
}

func (r *MatchRepository) FindByFixture(_ context.Context, homeTeamID, awayTeamID string, date time.Time) ([]match.Match, error) {
	day := match.DateOf(date)
	out := make([]match.Match, 0, 1)
	for _, item := range r.st.matches {
		if item.HomeTeamID == homeTeamID && item.AwayTeamID == awayTeamID && item.Date.Equal(day) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) ListByDateRange(_ context.Context, from, to time.Time) ([]match.Match, error) {
	fromDay, toDay := match.DateOf(from), match.DateOf(to)
	out := make([]match.Match, 0)
	for _, item := range r.st.matches {
		if item.Date.Before(fromDay) || item.Date.After(toDay) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) error {
	if err := item.Validate(); err != nil {
		return err
	}
	for _, other := range r.st.matches {
		if other.ID != item.ID &&
			other.HomeTeamID == item.HomeTeamID &&
			other.AwayTeamID == item.AwayTeamID &&
			other.Date.Equal(item.Date) {
			return errors.Mark(
				fmt.Errorf("match %s duplicates fixture of %s", item.ID, other.ID),
				usecase.ErrTransactionFailure,
			)
		}
	}
	r.st.matches[item.ID] = item
	return nil
}
