package match

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusPostponed Status = "postponed"
	StatusCancelled Status = "cancelled"
)

// MaxScore is the sanity bound for one side's goals.
const MaxScore = 20

var (
	ErrInvalidStatus     = errors.New("invalid match status")
	ErrInvalidScore      = errors.New("invalid match score")
	ErrInvalidTransition = errors.New("invalid match status transition")
)

// Match is one fixture between two teams. (HomeTeamID, AwayTeamID, Date) is
// unique.
type Match struct {
	ID                string
	SeasonName        string
	CompetitionCode   string
	Date              time.Time
	KickoffAt         *time.Time
	HomeTeamID        string
	AwayTeamID        string
	HomeScore         *int
	AwayScore         *int
	HalfTimeHomeScore *int
	HalfTimeAwayScore *int
	Status            Status
	Round             string
	Venue             string
	Referee           string
	Attendance        *int
	StateSource       string
	SourceUpdatedAt   *time.Time
}

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusLive:
		return StatusLive, nil
	case StatusFinished:
		return StatusFinished, nil
	case StatusPostponed:
		return StatusPostponed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// HasScore reports whether both sides have a recorded score.
func (m Match) HasScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// AcceptsDetail reports whether child rows may exist for the match.
func (m Match) AcceptsDetail() bool {
	if m.Status == StatusScheduled && !m.HasScore() {
		return false
	}
	return m.Status != StatusCancelled || m.HasScore()
}

func ValidateScorePair(home, away *int) error {
	if (home == nil) != (away == nil) {
		return fmt.Errorf("%w: scores must be both set or both empty", ErrInvalidScore)
	}
	if home == nil {
		return nil
	}
	if *home < 0 || *away < 0 {
		return fmt.Errorf("%w: negative score %d-%d", ErrInvalidScore, *home, *away)
	}
	if *home > MaxScore || *away > MaxScore {
		return fmt.Errorf("%w: score %d-%d exceeds %d", ErrInvalidScore, *home, *away, MaxScore)
	}
	return nil
}

func (m Match) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("match id is required")
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match teams are required")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match home and away team must differ")
	}
	if m.Date.IsZero() {
		return fmt.Errorf("match date is required")
	}
	if _, err := ParseStatus(string(m.Status)); err != nil {
		return err
	}
	if err := ValidateScorePair(m.HomeScore, m.AwayScore); err != nil {
		return err
	}
	return ValidateScorePair(m.HalfTimeHomeScore, m.HalfTimeAwayScore)
}

var forwardTransitions = map[Status]map[Status]struct{}{
	StatusScheduled: {
		StatusScheduled: {}, StatusLive: {}, StatusFinished: {}, StatusPostponed: {}, StatusCancelled: {},
	},
	StatusLive: {
		StatusLive: {}, StatusFinished: {}, StatusPostponed: {}, StatusCancelled: {},
	},
	StatusPostponed: {
		StatusPostponed: {}, StatusScheduled: {}, StatusLive: {}, StatusFinished: {}, StatusCancelled: {},
	},
	StatusFinished: {
		StatusFinished: {},
	},
	StatusCancelled: {
		StatusCancelled: {},
	},
}

// CanTransition reports whether from -> to moves forward. The only backward
// move allowed is postponed -> scheduled.
func CanTransition(from, to Status) bool {
	if from == "" {
		return true
	}
	allowed, ok := forwardTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsDowngrade reports a terminal result being pushed back to an open state.
func IsDowngrade(from, to Status) bool {
	if from != StatusFinished && from != StatusCancelled {
		return false
	}
	return !CanTransition(from, to)
}
