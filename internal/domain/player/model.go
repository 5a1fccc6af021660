package player

import (
	"fmt"
	"strings"
	"time"
)

// Position is the broad role a player is registered with.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
	PositionUnknown    Position = ""
)

// Player belongs to at most one squad at a time. JoinedAt/LeftAt bound the
// spell with TeamID.
type Player struct {
	ID              string
	Name            string
	NormalizedName  string
	DateOfBirth     *time.Time
	Nationality     string
	Position        Position
	SquadNumber     *int
	TeamID          string
	JoinedAt        *time.Time
	LeftAt          *time.Time
	SourceUpdatedAt *time.Time
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if strings.TrimSpace(p.NormalizedName) == "" {
		return fmt.Errorf("player normalized name is required")
	}
	if p.SquadNumber != nil && (*p.SquadNumber < 0 || *p.SquadNumber > 99) {
		return fmt.Errorf("player squad number %d is out of range", *p.SquadNumber)
	}
	if p.JoinedAt != nil && p.LeftAt != nil && p.LeftAt.Before(*p.JoinedAt) {
		return fmt.Errorf("player left date is before joined date")
	}
	return nil
}

// Active reports whether the player is currently in TeamID's squad.
func (p Player) Active() bool {
	return p.TeamID != "" && p.LeftAt == nil
}

// NormalizePosition maps provider position labels onto the four broad roles.
func NormalizePosition(raw string) Position {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return PositionUnknown
	case value == "gk", strings.Contains(value, "goalkeeper"), strings.Contains(value, "keeper"):
		return PositionGoalkeeper
	case value == "def", strings.Contains(value, "defen"), strings.Contains(value, "back"):
		return PositionDefender
	case value == "mid", strings.Contains(value, "midfield"), strings.Contains(value, "winger"):
		return PositionMidfielder
	case value == "fwd", strings.Contains(value, "forward"), strings.Contains(value, "striker"),
		strings.Contains(value, "offence"), strings.Contains(value, "attack"):
		return PositionForward
	default:
		return PositionUnknown
	}
}
