package footballdata

import (
	"strconv"
	"strings"

	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func (a *Adapter) toMatchRecord(m matchPayload) usecase.ProviderMatchRecord {
	kickoffAt := parseTimestamp(m.UTCDate)
	rec := usecase.ProviderMatchRecord{
		RecordMeta: usecase.RecordMeta{
			Source:     usecase.SourceFootballData,
			ProviderID: strconv.FormatInt(m.ID, 10),
			UpdatedAt:  parseTimestamp(m.LastUpdated),
		},
		CompetitionCode:   a.codes[strings.ToUpper(strings.TrimSpace(m.Competition.Code))],
		Home:              usecase.ProviderTeamSide{ProviderID: idString(m.HomeTeam.ID), Name: strings.TrimSpace(m.HomeTeam.Name)},
		Away:              usecase.ProviderTeamSide{ProviderID: idString(m.AwayTeam.ID), Name: strings.TrimSpace(m.AwayTeam.Name)},
		HomeScore:         m.Score.FullTime.Home,
		AwayScore:         m.Score.FullTime.Away,
		HalfTimeHomeScore: m.Score.HalfTime.Home,
		HalfTimeAwayScore: m.Score.HalfTime.Away,
		Status:            mapStatus(m.Status),
		Venue:             strings.TrimSpace(m.Venue),
		Referee:           mainReferee(m.Referees),
		Attendance:        m.Attendance,
	}
	if kickoffAt != nil {
		rec.KickoffAt = *kickoffAt
	}
	rec.SeasonName = seasonLabel(m.Season, rec.KickoffAt)
	if m.Matchday != nil {
		rec.Round = strconv.Itoa(*m.Matchday)
	} else {
		rec.Round = strings.TrimSpace(m.Stage)
	}
	return rec
}

func (a *Adapter) toMatchDetail(m matchPayload, providerMatchID string) usecase.ProviderMatchDetail {
	rec := a.toMatchRecord(m)
	detail := usecase.ProviderMatchDetail{
		RecordMeta: usecase.RecordMeta{
			Source:     usecase.SourceFootballData,
			ProviderID: providerMatchID,
			UpdatedAt:  cloneTime(rec.UpdatedAt),
		},
		Match: &rec,
		Home:  teamStats(m.HomeTeam.Statistics),
		Away:  teamStats(m.AwayTeam.Statistics),
	}

	sideOf := func(team personRef) matchdetail.TeamSide {
		if team.ID != 0 && team.ID == m.AwayTeam.ID {
			return matchdetail.SideAway
		}
		return matchdetail.SideHome
	}

	for _, g := range m.Goals {
		goal := usecase.ProviderGoal{
			Side:    sideOf(g.Team),
			Minute:  minute(g.Minute, g.InjuryTime),
			OwnGoal: strings.EqualFold(g.Type, "OWN"),
			Penalty: strings.EqualFold(g.Type, "PENALTY"),
		}
		if g.Scorer != nil {
			goal.Scorer = playerRef(*g.Scorer)
		}
		if g.Assist != nil {
			goal.Assist = playerRef(*g.Assist)
		}
		detail.Goals = append(detail.Goals, goal)
	}

	for _, b := range m.Bookings {
		card := usecase.ProviderCard{
			Side:   sideOf(b.Team),
			Player: playerRef(b.Player),
			Minute: minute(b.Minute, nil),
		}
		switch strings.ToUpper(strings.TrimSpace(b.Card)) {
		case "YELLOW":
			card.Type = matchdetail.CardYellow
		case "YELLOW_RED":
			card.Type = matchdetail.CardSecondYellow
		case "RED":
			card.Type = matchdetail.CardRed
		default:
			a.logger.Debug("skip booking with unknown card", "match_id", providerMatchID, "card", b.Card)
			continue
		}
		detail.Cards = append(detail.Cards, card)
	}

	minutesOn := make(map[int64]int, len(m.Substitutions))
	minutesOff := make(map[int64]int, len(m.Substitutions))
	for _, s := range m.Substitutions {
		at := minute(s.Minute, nil)
		if s.PlayerIn.ID != 0 {
			minutesOn[s.PlayerIn.ID] = at
		}
		if s.PlayerOut.ID != 0 {
			minutesOff[s.PlayerOut.ID] = at
		}
	}
	for _, side := range []struct {
		side matchdetail.TeamSide
		team matchTeam
	}{
		{side: matchdetail.SideHome, team: m.HomeTeam},
		{side: matchdetail.SideAway, team: m.AwayTeam},
	} {
		for _, group := range []struct {
			players []lineupPlayer
			starter bool
		}{
			{players: side.team.Lineup, starter: true},
			{players: side.team.Bench, starter: false},
		} {
			for _, p := range group.players {
				entry := usecase.ProviderLineupEntry{
					Side:        side.side,
					Player:      playerRef(personRef{ID: p.ID, Name: p.Name}),
					Position:    string(player.NormalizePosition(p.Position)),
					ShirtNumber: p.ShirtNumber,
					Starter:     group.starter,
				}
				if v, ok := minutesOn[p.ID]; ok {
					entry.MinuteOn = &v
				}
				if v, ok := minutesOff[p.ID]; ok {
					entry.MinuteOff = &v
				}
				detail.Lineup = append(detail.Lineup, entry)
			}
		}
	}
	return detail
}

func teamStats(in *teamStatistics) *usecase.ProviderTeamStats {
	if in == nil {
		return nil
	}
	out := &usecase.ProviderTeamStats{
		Possession:    in.BallPossession,
		Shots:         in.Shots,
		ShotsOnTarget: in.ShotsOnGoal,
		Corners:       in.CornerKicks,
		Fouls:         in.Fouls,
		Offsides:      in.Offsides,
		YellowCards:   in.YellowCards,
		RedCards:      in.RedCards,
	}
	// A second yellow is sent off, so it counts as a red.
	if in.YellowRedCards != nil {
		reds := *in.YellowRedCards
		if in.RedCards != nil {
			reds += *in.RedCards
		}
		out.RedCards = &reds
	}
	return out
}

func minute(base, injury *int) int {
	total := 0
	if base != nil {
		total = *base
	}
	if injury != nil {
		total += *injury
	}
	return total
}

func mainReferee(refs []referee) string {
	for _, r := range refs {
		if strings.EqualFold(r.Type, "REFEREE") && strings.TrimSpace(r.Name) != "" {
			return strings.TrimSpace(r.Name)
		}
	}
	if len(refs) > 0 {
		return strings.TrimSpace(refs[0].Name)
	}
	return ""
}

func playerRef(p personRef) usecase.ProviderPlayerRef {
	ref := usecase.ProviderPlayerRef{Name: strings.TrimSpace(p.Name)}
	if p.ID != 0 {
		ref.ProviderID = strconv.FormatInt(p.ID, 10)
	}
	return ref
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
