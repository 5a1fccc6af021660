package matchdetail

import (
	"fmt"
	"sort"
)

// MaxCardsPerTeam bounds yellow and red counts for one side.
const MaxCardsPerTeam = 10

type CardType string

const (
	CardYellow       CardType = "yellow"
	CardSecondYellow CardType = "second_yellow"
	CardRed          CardType = "red"
)

type TeamSide string

const (
	SideHome TeamSide = "home"
	SideAway TeamSide = "away"
)

// TeamStatistics is one side's per-match aggregates. Nil means unknown.
type TeamStatistics struct {
	TeamID        string
	Side          TeamSide
	Possession    *float64
	Shots         *int
	ShotsOnTarget *int
	Corners       *int
	Fouls         *int
	YellowCards   *int
	RedCards      *int
	Offsides      *int
}

type Goal struct {
	TeamID   string
	PlayerID string
	Scorer   string
	AssistID string
	Minute   int
	OwnGoal  bool
	Penalty  bool
}

type Card struct {
	TeamID   string
	PlayerID string
	Player   string
	Minute   int
	Type     CardType
}

type LineupEntry struct {
	TeamID      string
	PlayerID    string
	Player      string
	Position    string
	ShirtNumber *int
	Starter     bool
	MinuteOn    *int
	MinuteOff   *int
}

// PlayerMatchStat is derived from goals, cards and lineup of one match.
type PlayerMatchStat struct {
	PlayerID      string
	TeamID        string
	Started       bool
	MinutesPlayed int
	Goals         int
	Assists       int
	YellowCards   int
	RedCards      int
}

// Detail is the full child set of one match.
type Detail struct {
	MatchID     string
	Source      string
	Home        *TeamStatistics
	Away        *TeamStatistics
	Goals       []Goal
	Cards       []Card
	Lineup      []LineupEntry
	PlayerStats []PlayerMatchStat
}

func (d Detail) Empty() bool {
	return d.Home == nil && d.Away == nil && len(d.Goals) == 0 && len(d.Cards) == 0 && len(d.Lineup) == 0
}

func (s TeamStatistics) Validate() error {
	if s.Possession != nil && (*s.Possession < 0 || *s.Possession > 100) {
		return fmt.Errorf("possession %.1f out of range", *s.Possession)
	}
	for name, v := range map[string]*int{
		"shots":           s.Shots,
		"shots on target": s.ShotsOnTarget,
		"corners":         s.Corners,
		"fouls":           s.Fouls,
		"offsides":        s.Offsides,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if s.YellowCards != nil && (*s.YellowCards < 0 || *s.YellowCards > MaxCardsPerTeam) {
		return fmt.Errorf("yellow cards %d out of range", *s.YellowCards)
	}
	if s.RedCards != nil && (*s.RedCards < 0 || *s.RedCards > MaxCardsPerTeam) {
		return fmt.Errorf("red cards %d out of range", *s.RedCards)
	}
	return nil
}

func (d Detail) Validate() error {
	if d.MatchID == "" {
		return fmt.Errorf("match detail requires match id")
	}
	for _, side := range []*TeamStatistics{d.Home, d.Away} {
		if side == nil {
			continue
		}
		if err := side.Validate(); err != nil {
			return fmt.Errorf("team statistics %s: %w", side.Side, err)
		}
	}
	for _, g := range d.Goals {
		if g.Minute < 0 {
			return fmt.Errorf("goal minute %d must not be negative", g.Minute)
		}
	}
	for _, c := range d.Cards {
		if c.Minute < 0 {
			return fmt.Errorf("card minute %d must not be negative", c.Minute)
		}
	}
	return nil
}

// fullMatchMinutes is used when a lineup entry has no substitution minute.
const fullMatchMinutes = 90

// DerivePlayerStats builds per-player rows from the detail's child sets.
// Entries without a resolved player id are skipped.
func DerivePlayerStats(d Detail) []PlayerMatchStat {
	byPlayer := make(map[string]*PlayerMatchStat)
	get := func(playerID, teamID string) *PlayerMatchStat {
		row, ok := byPlayer[playerID]
		if !ok {
			row = &PlayerMatchStat{PlayerID: playerID, TeamID: teamID}
			byPlayer[playerID] = row
		}
		return row
	}

	for _, l := range d.Lineup {
		if l.PlayerID == "" {
			continue
		}
		row := get(l.PlayerID, l.TeamID)
		row.Started = l.Starter
		on := 0
		if !l.Starter {
			if l.MinuteOn == nil {
				continue
			}
			on = *l.MinuteOn
		}
		off := fullMatchMinutes
		if l.MinuteOff != nil {
			off = *l.MinuteOff
		}
		if off > on {
			row.MinutesPlayed = off - on
		}
	}
	for _, g := range d.Goals {
		if g.PlayerID != "" && !g.OwnGoal {
			get(g.PlayerID, g.TeamID).Goals++
		}
		if g.AssistID != "" {
			get(g.AssistID, g.TeamID).Assists++
		}
	}
	for _, c := range d.Cards {
		if c.PlayerID == "" {
			continue
		}
		row := get(c.PlayerID, c.TeamID)
		switch c.Type {
		case CardYellow:
			row.YellowCards++
		case CardSecondYellow:
			row.YellowCards++
			row.RedCards++
		case CardRed:
			row.RedCards++
		}
	}

	out := make([]PlayerMatchStat, 0, len(byPlayer))
	for _, row := range byPlayer {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}
