package team

import (
	"fmt"
	"strings"
	"time"
)

// Team is a football club with one canonical name across every provider.
type Team struct {
	ID              string
	Name            string
	NormalizedName  string
	ShortName       string
	City            string
	Stadium         string
	Country         string
	FoundedYear     *int
	Website         string
	ClubColors      string
	SourceUpdatedAt *time.Time
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if strings.TrimSpace(t.NormalizedName) == "" {
		return fmt.Errorf("team normalized name is required")
	}
	if t.FoundedYear != nil && (*t.FoundedYear < 1800 || *t.FoundedYear > 2100) {
		return fmt.Errorf("team founded year %d is out of range", *t.FoundedYear)
	}
	return nil
}
