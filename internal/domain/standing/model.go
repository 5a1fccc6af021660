package standing

import (
	"context"
	"fmt"
	"time"
)

// Standing is one team's row in a competition table for a season.
type Standing struct {
	CompetitionCode string
	SeasonName      string
	TeamID          string
	Position        int
	Played          int
	Won             int
	Drawn           int
	Lost            int
	GoalsFor        int
	GoalsAgainst    int
	Points          int
	Form            string
	StateSource     string
	SourceUpdatedAt *time.Time
}

func (s Standing) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}

func (s Standing) Validate() error {
	if s.CompetitionCode == "" || s.SeasonName == "" || s.TeamID == "" {
		return fmt.Errorf("standing requires competition, season and team")
	}
	if s.Position <= 0 {
		return fmt.Errorf("standing position must be > 0")
	}
	for name, v := range map[string]int{
		"played":        s.Played,
		"won":           s.Won,
		"drawn":         s.Drawn,
		"lost":          s.Lost,
		"goals for":     s.GoalsFor,
		"goals against": s.GoalsAgainst,
	} {
		if v < 0 {
			return fmt.Errorf("standing %s must not be negative", name)
		}
	}
	if s.Won+s.Drawn+s.Lost > s.Played {
		return fmt.Errorf("standing results %d exceed played %d", s.Won+s.Drawn+s.Lost, s.Played)
	}
	return nil
}

type Repository interface {
	Get(ctx context.Context, competitionCode, seasonName, teamID string) (Standing, bool, error)
	ListByCompetition(ctx context.Context, competitionCode, seasonName string) ([]Standing, error)
	Upsert(ctx context.Context, item Standing) error
}
