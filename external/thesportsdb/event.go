package thesportsdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func (a *Adapter) toMatchRecord(e eventItem) usecase.ProviderMatchRecord {
	kickoffAt := kickoff(e)
	seasonName, err := season.NormalizeName(e.Season.String())
	if err != nil && !kickoffAt.IsZero() {
		seasonName = season.ForDate(kickoffAt).Name
	}

	return usecase.ProviderMatchRecord{
		RecordMeta:        usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: e.ID.String()},
		CompetitionCode:   a.codes[e.LeagueID.String()],
		SeasonName:        seasonName,
		KickoffAt:         kickoffAt,
		Home:              usecase.ProviderTeamSide{ProviderID: e.HomeTeamID.String(), Name: e.HomeTeam.String()},
		Away:              usecase.ProviderTeamSide{ProviderID: e.AwayTeamID.String(), Name: e.AwayTeam.String()},
		HomeScore:         e.HomeScore.intPtr(),
		AwayScore:         e.AwayScore.intPtr(),
		HalfTimeHomeScore: e.HomeScoreHT.intPtr(),
		HalfTimeAwayScore: e.AwayScoreHT.intPtr(),
		Status:            determineStatus(e, kickoffAt, a.now()),
		Round:             e.Round.String(),
		Venue:             e.Venue.String(),
		Referee:           e.Referee.String(),
		Attendance:        e.Spectators.intPtr(),
	}
}

func (a *Adapter) toMatchDetail(e eventItem, providerMatchID string) usecase.ProviderMatchDetail {
	rec := a.toMatchRecord(e)
	if rec.ProviderID == "" {
		rec.ProviderID = providerMatchID
	}

	detail := usecase.ProviderMatchDetail{
		RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: providerMatchID},
		Match:      &rec,
		Home: teamStats(
			e.HomePossess, e.HomeShots, e.HomeOnTarget, e.HomeCorners, e.HomeFouls, e.HomeYellows, e.HomeReds,
		),
		Away: teamStats(
			e.AwayPossess, e.AwayShots, e.AwayOnTarget, e.AwayCorners, e.AwayFouls, e.AwayYellows, e.AwayReds,
		),
	}

	for _, side := range []struct {
		side    matchdetail.TeamSide
		goals   text
		yellows text
		reds    text
		lineup  [5]text
	}{
		{
			side: matchdetail.SideHome, goals: e.HomeGoals, yellows: e.HomeYellowLog, reds: e.HomeRedLog,
			lineup: [5]text{e.HomeKeeper, e.HomeDefense, e.HomeMidfield, e.HomeForward, e.HomeSubs},
		},
		{
			side: matchdetail.SideAway, goals: e.AwayGoals, yellows: e.AwayYellowLog, reds: e.AwayRedLog,
			lineup: [5]text{e.AwayKeeper, e.AwayDefense, e.AwayMidfield, e.AwayForward, e.AwaySubs},
		},
	} {
		for _, entry := range parseTimedList(side.goals.String()) {
			detail.Goals = append(detail.Goals, usecase.ProviderGoal{
				Side:    side.side,
				Scorer:  usecase.ProviderPlayerRef{Name: entry.name},
				Minute:  entry.minute,
				OwnGoal: entry.ownGoal,
				Penalty: entry.penalty,
			})
		}
		for _, card := range []struct {
			raw  text
			kind matchdetail.CardType
		}{{side.yellows, matchdetail.CardYellow}, {side.reds, matchdetail.CardRed}} {
			for _, entry := range parseTimedList(card.raw.String()) {
				detail.Cards = append(detail.Cards, usecase.ProviderCard{
					Side:   side.side,
					Player: usecase.ProviderPlayerRef{Name: entry.name},
					Minute: entry.minute,
					Type:   card.kind,
				})
			}
		}
		detail.Lineup = append(detail.Lineup, parseLineup(side.side, side.lineup)...)
	}
	return detail
}

// determineStatus prefers strStatus. Without one, a scored or past fixture
// is finished and anything else is scheduled.
func determineStatus(e eventItem, kickoffAt, now time.Time) match.Status {
	if strings.EqualFold(e.Postponed.String(), "yes") {
		return match.StatusPostponed
	}
	if status, ok := mapStatus(e.Status.String()); ok {
		return status
	}
	if e.HomeScore.intPtr() != nil && e.AwayScore.intPtr() != nil {
		return match.StatusFinished
	}
	if !kickoffAt.IsZero() {
		today := now.UTC().Truncate(24 * time.Hour)
		if kickoffAt.UTC().Before(today) {
			return match.StatusFinished
		}
	}
	return match.StatusScheduled
}

func mapStatus(raw string) (match.Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", false
	case "ns", "not started", "tbd", "time to be defined":
		return match.StatusScheduled, true
	case "1h", "ht", "2h", "et", "bt", "p", "live", "in progress", "first half", "second half", "halftime":
		return match.StatusLive, true
	case "ft", "aet", "pen", "match finished", "finished", "awd", "wo":
		return match.StatusFinished, true
	case "pst", "postponed", "susp", "suspended", "int", "interrupted":
		return match.StatusPostponed, true
	case "canc", "cancelled", "canceled", "abd", "abandoned":
		return match.StatusCancelled, true
	default:
		return "", false
	}
}

func kickoff(e eventItem) time.Time {
	if ts := parseDateTime(e.Timestamp.String()); ts != nil {
		return *ts
	}
	date := e.DateEvent.String()
	if date == "" {
		return time.Time{}
	}
	if clock := e.Time.String(); clock != "" {
		if ts := parseDateTime(date + " " + clock); ts != nil {
			return *ts
		}
	}
	if d := parseDate(date); d != nil {
		return *d
	}
	return time.Time{}
}

func teamStats(possession, shots, onTarget, corners, fouls, yellows, reds text) *usecase.ProviderTeamStats {
	stats := &usecase.ProviderTeamStats{
		Possession:    possession.floatPtr(),
		Shots:         shots.intPtr(),
		ShotsOnTarget: onTarget.intPtr(),
		Corners:       corners.intPtr(),
		Fouls:         fouls.intPtr(),
		YellowCards:   yellows.intPtr(),
		RedCards:      reds.intPtr(),
	}
	if stats.Possession == nil && stats.Shots == nil && stats.ShotsOnTarget == nil && stats.Corners == nil &&
		stats.Fouls == nil && stats.YellowCards == nil && stats.RedCards == nil {
		return nil
	}
	return stats
}

type timedEntry struct {
	minute  int
	name    string
	penalty bool
	ownGoal bool
}

// parseTimedList reads detail strings such as "23':Sammie Szmodics;45+2':Leif Davis (pen);".
func parseTimedList(raw string) []timedEntry {
	var out []timedEntry
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var entry timedEntry
		name := part
		if idx := strings.Index(part, ":"); idx >= 0 {
			entry.minute = parseMinute(part[:idx])
			name = part[idx+1:]
		}

		lower := strings.ToLower(name)
		entry.penalty = strings.Contains(lower, "(pen") || strings.Contains(lower, "(p)")
		entry.ownGoal = strings.Contains(lower, "(og") || strings.Contains(lower, "(o.g")
		if idx := strings.Index(name, "("); idx >= 0 {
			name = name[:idx]
		}
		entry.name = strings.TrimSpace(name)
		if entry.name == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// parseMinute turns "23'" into 23 and stoppage time "45+2'" into 47.
func parseMinute(raw string) int {
	total := 0
	for _, piece := range strings.Split(strings.Trim(strings.TrimSpace(raw), "'’"), "+") {
		v, err := strconv.Atoi(strings.Trim(strings.TrimSpace(piece), "'’"))
		if err != nil {
			continue
		}
		total += v
	}
	return total
}

var lineupPositions = [4]player.Position{
	player.PositionGoalkeeper,
	player.PositionDefender,
	player.PositionMidfielder,
	player.PositionForward,
}

// parseLineup reads the goalkeeper, defense, midfield, forward and
// substitutes strings, in that order.
func parseLineup(side matchdetail.TeamSide, groups [5]text) []usecase.ProviderLineupEntry {
	var out []usecase.ProviderLineupEntry
	for i, group := range groups {
		for _, name := range strings.Split(group.String(), ";") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			entry := usecase.ProviderLineupEntry{
				Side:    side,
				Player:  usecase.ProviderPlayerRef{Name: name},
				Starter: i < len(lineupPositions),
			}
			if entry.Starter {
				entry.Position = string(lineupPositions[i])
			}
			out = append(out, entry)
		}
	}
	return out
}

func parseDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" || strings.HasPrefix(value, "0000") {
		return nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil
	}
	v := parsed.UTC()
	return &v
}

func parseDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04",
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}
