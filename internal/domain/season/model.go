// Package season holds the season calendar and the competitions a club
// plays in.
package season

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Seasons start on Aug 1 and end on May 31 of the following year.
const (
	startMonth = time.August
	endMonth   = time.May
	endDay     = 31
)

type Season struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

type Competition struct {
	Code string
	Name string
}

// StartYear returns the calendar year the season named name begins in.
func StartYear(name string) (int, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(normalized[:4])
}

// ForDate returns the season a given instant belongs to. June and July are
// attributed to the season that just ended.
func ForDate(t time.Time) Season {
	u := t.UTC()
	year := u.Year()
	if u.Month() < startMonth {
		year--
	}
	return forStartYear(year)
}

func forStartYear(year int) Season {
	return Season{
		Name:      fmt.Sprintf("%d/%02d", year, (year+1)%100),
		StartDate: time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year+1, endMonth, endDay, 0, 0, 0, 0, time.UTC),
	}
}

var (
	shortPattern = regexp.MustCompile(`^(\d{4})\s*[/-]\s*(\d{2})$`)
	longPattern  = regexp.MustCompile(`^(\d{4})\s*[/-]\s*(\d{4})$`)
	yearPattern  = regexp.MustCompile(`^(\d{4})$`)
)

// NormalizeName converts provider season labels ("2024-2025", "2024/25",
// "2024") to the canonical "2024/25" form.
func NormalizeName(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	var startYear int
	switch {
	case longPattern.MatchString(v):
		m := longPattern.FindStringSubmatch(v)
		startYear, _ = strconv.Atoi(m[1])
		endYear, _ := strconv.Atoi(m[2])
		if endYear != startYear+1 {
			return "", fmt.Errorf("season %q does not span consecutive years", raw)
		}
	case shortPattern.MatchString(v):
		m := shortPattern.FindStringSubmatch(v)
		startYear, _ = strconv.Atoi(m[1])
		endSuffix, _ := strconv.Atoi(m[2])
		if endSuffix != (startYear+1)%100 {
			return "", fmt.Errorf("season %q does not span consecutive years", raw)
		}
	case yearPattern.MatchString(v):
		startYear, _ = strconv.Atoi(v)
	default:
		return "", fmt.Errorf("unrecognized season %q", raw)
	}
	return forStartYear(startYear).Name, nil
}

// FromName builds the full season for a label.
func FromName(raw string) (Season, error) {
	year, err := StartYear(raw)
	if err != nil {
		return Season{}, err
	}
	return forStartYear(year), nil
}

// Range lists every season intersecting [from, to], oldest first.
func Range(from, to time.Time) []Season {
	if to.Before(from) {
		return nil
	}
	first := ForDate(from)
	last := ForDate(to)
	firstYear := first.StartDate.Year()
	lastYear := last.StartDate.Year()

	out := make([]Season, 0, lastYear-firstYear+1)
	for y := firstYear; y <= lastYear; y++ {
		out = append(out, forStartYear(y))
	}
	return out
}

// Contains reports whether t falls within the season's start and end days.
func (s Season) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(s.StartDate) && u.Before(s.EndDate.AddDate(0, 0, 1))
}

// FootballDataYear is the start year Football-Data uses as ?season=.
func (s Season) FootballDataYear() int {
	return s.StartDate.Year()
}

// TheSportsDBLabel is the "2024-2025" form TheSportsDB uses.
func (s Season) TheSportsDBLabel() string {
	y := s.StartDate.Year()
	return fmt.Sprintf("%d-%d", y, y+1)
}
