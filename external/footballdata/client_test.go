package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/football-sync/external/providerhttp"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

var ipswich = usecase.TeamRef{
	Name:        "Ipswich Town",
	ProviderIDs: map[usecase.Source]string{usecase.SourceFootballData: "349"},
}

func newTestAdapter(t *testing.T, routes map[string]string) *Adapter {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "fd-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		body, ok := routes[r.URL.Path+"?"+r.URL.RawQuery]
		if !ok {
			body, ok = routes[r.URL.Path]
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found","errorCode":404}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := providerhttp.New(providerhttp.Config{
		Source:     usecase.SourceFootballData,
		BaseURL:    server.URL + "/v4",
		HTTPClient: server.Client(),
		Headers:    map[string]string{"X-Auth-Token": "fd-token"},
		Logger:     logging.NewNop(),
		Secrets:    []string{"fd-token"},
	})
	return New(client, Config{
		Competitions: map[string]string{"championship": "elc", "premier_league": "PL", "fa_cup": ""},
		Logger:       logging.NewNop(),
	})
}

const teamBody = `{
	"id": 349, "name": "Ipswich Town FC", "shortName": "Ipswich", "tla": "IPS",
	"area": {"name": "England"}, "address": "Portman Road Ipswich IP1 2DA",
	"website": "http://www.itfc.co.uk", "founded": 1878, "clubColors": "Blue / White",
	"venue": "Portman Road", "lastUpdated": "2025-08-01T10:00:00Z",
	"squad": [
		{"id": 9001, "name": "Leif Davis", "position": "Defence", "dateOfBirth": "1999-12-31", "nationality": "England", "shirtNumber": 3},
		{"id": 9002, "name": "Christian Walton", "position": "Goalkeeper", "dateOfBirth": "1995-11-09", "nationality": "England", "shirtNumber": null},
		{"id": 0, "name": "Trialist"}
	]
}`

func TestAdapter_FetchTeam(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, map[string]string{"/v4/teams/349": teamBody})

	rec, err := adapter.FetchTeam(context.Background(), ipswich)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ProviderID != "349" || rec.Name != "Ipswich Town FC" || rec.Stadium != "Portman Road" || rec.Country != "England" {
		t.Fatalf("unexpected team %+v", rec)
	}
	if rec.FoundedYear == nil || *rec.FoundedYear != 1878 || rec.ClubColors != "Blue / White" {
		t.Fatalf("unexpected team fields %+v", rec)
	}
	if rec.UpdatedAt == nil || !rec.UpdatedAt.Equal(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updated at %v", rec.UpdatedAt)
	}
}

func TestAdapter_FetchTeamSquad(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, map[string]string{"/v4/teams/349": teamBody})

	squad, err := adapter.FetchTeamSquad(context.Background(), ipswich)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(squad) != 2 {
		t.Fatalf("expected 2 players, got %+v", squad)
	}
	if p := squad[0]; p.ProviderID != "9001" || p.Position != player.PositionDefender || p.SquadNumber == nil || *p.SquadNumber != 3 {
		t.Fatalf("unexpected player %+v", p)
	}
	if p := squad[1]; p.Position != player.PositionGoalkeeper || p.SquadNumber != nil || p.DateOfBirth == nil {
		t.Fatalf("unexpected keeper %+v", p)
	}
}

func TestAdapter_FetchSeasonMatches(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, map[string]string{
		"/v4/teams/349/matches?season=2025": `{"matches": [
			{"id": 332002, "utcDate": "2025-08-16T11:30:00Z", "status": "TIMED", "matchday": 2,
			 "lastUpdated": "2025-08-10T08:00:00Z", "competition": {"code": "ELC", "name": "Championship"},
			 "season": {"startDate": "2025-08-08", "endDate": "2026-05-02"},
			 "homeTeam": {"id": 338, "name": "Leicester City FC"}, "awayTeam": {"id": 349, "name": "Ipswich Town FC"},
			 "score": {"fullTime": {"home": null, "away": null}, "halfTime": {"home": null, "away": null}}, "referees": []},
			{"id": 332001, "utcDate": "2025-08-09T14:00:00Z", "status": "FINISHED", "matchday": 1,
			 "lastUpdated": "2025-08-10T09:00:00Z", "competition": {"code": "ELC", "name": "Championship"},
			 "season": {"startDate": "2025-08-08", "endDate": "2026-05-02"},
			 "homeTeam": {"id": 349, "name": "Ipswich Town FC"}, "awayTeam": {"id": 332, "name": "Birmingham City FC"},
			 "score": {"fullTime": {"home": 2, "away": 1}, "halfTime": {"home": 1, "away": 0}},
			 "referees": [{"name": "Jane Assistant", "type": "ASSISTANT_REFEREE_N1"}, {"name": "Tim Robinson", "type": "REFEREE"}]},
			{"id": 500100, "utcDate": "2025-08-12T18:45:00Z", "status": "AWARDED", "stage": "FIRST_ROUND",
			 "competition": {"code": "FLC", "name": "EFL Cup"}, "season": {"startDate": "2025-07-29", "endDate": "2026-03-22"},
			 "homeTeam": {"id": 9, "name": "Bristol Rovers FC"}, "awayTeam": {"id": 349, "name": "Ipswich Town FC"},
			 "score": {"fullTime": {"home": 0, "away": 3}, "halfTime": {"home": null, "away": null}}}
		]}`,
	})

	records, err := adapter.FetchSeasonMatches(context.Background(), ipswich, "2025/26")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %+v", records)
	}

	first := records[0]
	if first.ProviderID != "332001" || first.Status != match.StatusFinished || *first.HomeScore != 2 || *first.HalfTimeHomeScore != 1 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.CompetitionCode != "championship" || first.SeasonName != "2025/26" || first.Round != "1" || first.Referee != "Tim Robinson" {
		t.Fatalf("unexpected first record fields %+v", first)
	}
	if first.UpdatedAt == nil || !first.UpdatedAt.Equal(time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updated at %v", first.UpdatedAt)
	}

	cup := records[1]
	if cup.ProviderID != "500100" || cup.Status != match.StatusFinished || cup.CompetitionCode != "" || cup.Round != "FIRST_ROUND" {
		t.Fatalf("unexpected cup record %+v", cup)
	}
	if cup.SeasonName != "2025/26" {
		t.Fatalf("season must follow the start year, got %q", cup.SeasonName)
	}

	next := records[2]
	if next.Status != match.StatusScheduled || next.HomeScore != nil || next.Away.ProviderID != "349" {
		t.Fatalf("unexpected upcoming record %+v", next)
	}
}

func TestAdapter_FetchMatchDetail(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, map[string]string{
		"/v4/matches/332001": `{
			"id": 332001, "utcDate": "2025-08-09T14:00:00Z", "status": "FINISHED", "matchday": 1,
			"venue": "Portman Road", "attendance": 29011, "lastUpdated": "2025-08-10T09:00:00Z",
			"competition": {"code": "ELC"}, "season": {"startDate": "2025-08-08", "endDate": "2026-05-02"},
			"homeTeam": {"id": 349, "name": "Ipswich Town FC",
				"lineup": [{"id": 9002, "name": "Christian Walton", "position": "Goalkeeper", "shirtNumber": 28},
				           {"id": 9001, "name": "Leif Davis", "position": "Left-Back", "shirtNumber": 3}],
				"bench": [{"id": 9003, "name": "Sammie Szmodics", "position": "Attacking Midfield", "shirtNumber": 23}],
				"statistics": {"ball_possession": 55, "shots": 14, "shots_on_goal": 6, "corner_kicks": 7,
				               "fouls": 9, "offsides": 2, "yellow_cards": 1, "yellow_red_cards": 0, "red_cards": 0}},
			"awayTeam": {"id": 332, "name": "Birmingham City FC",
				"statistics": {"ball_possession": 45, "yellow_cards": 2, "yellow_red_cards": 1, "red_cards": 0}},
			"score": {"fullTime": {"home": 2, "away": 1}, "halfTime": {"home": 1, "away": 0}},
			"goals": [
				{"minute": 23, "injuryTime": null, "type": "REGULAR", "team": {"id": 349}, "scorer": {"id": 9003, "name": "Sammie Szmodics"}, "assist": {"id": 9001, "name": "Leif Davis"}},
				{"minute": 45, "injuryTime": 2, "type": "OWN", "team": {"id": 332}, "scorer": {"id": 9001, "name": "Leif Davis"}, "assist": null},
				{"minute": 67, "type": "PENALTY", "team": {"id": 349}, "scorer": {"id": 9001, "name": "Leif Davis"}}
			],
			"bookings": [
				{"minute": 30, "team": {"id": 349}, "player": {"id": 9001, "name": "Leif Davis"}, "card": "YELLOW"},
				{"minute": 80, "team": {"id": 332}, "player": {"id": 4001, "name": "Marc Leonard"}, "card": "YELLOW_RED"},
				{"minute": 81, "team": {"id": 332}, "player": {"id": 4002, "name": "Someone"}, "card": "GREEN"}
			],
			"substitutions": [
				{"minute": 60, "team": {"id": 349}, "playerOut": {"id": 9001, "name": "Leif Davis"}, "playerIn": {"id": 9003, "name": "Sammie Szmodics"}}
			]
		}`,
	})

	d, err := adapter.FetchMatchDetail(context.Background(), "332001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ProviderID != "332001" || d.UpdatedAt == nil || d.Match == nil || *d.Match.Attendance != 29011 || d.Match.Venue != "Portman Road" {
		t.Fatalf("unexpected detail header %+v", d)
	}
	if d.Home == nil || *d.Home.Possession != 55 || *d.Home.ShotsOnTarget != 6 || *d.Home.RedCards != 0 {
		t.Fatalf("unexpected home statistics %+v", d.Home)
	}
	if d.Away == nil || *d.Away.RedCards != 1 || d.Away.Shots != nil {
		t.Fatalf("unexpected away statistics %+v", d.Away)
	}

	if len(d.Goals) != 3 {
		t.Fatalf("expected 3 goals, got %+v", d.Goals)
	}
	if g := d.Goals[0]; g.Side != matchdetail.SideHome || g.Scorer.ProviderID != "9003" || g.Assist.ProviderID != "9001" {
		t.Fatalf("unexpected first goal %+v", g)
	}
	if g := d.Goals[1]; g.Side != matchdetail.SideAway || !g.OwnGoal || g.Minute != 47 || g.Assist.ProviderID != "" {
		t.Fatalf("unexpected own goal %+v", g)
	}
	if g := d.Goals[2]; !g.Penalty || g.Minute != 67 {
		t.Fatalf("unexpected penalty %+v", g)
	}

	if len(d.Cards) != 2 || d.Cards[1].Type != matchdetail.CardSecondYellow || d.Cards[1].Side != matchdetail.SideAway {
		t.Fatalf("unexpected cards %+v", d.Cards)
	}

	if len(d.Lineup) != 3 {
		t.Fatalf("expected 3 lineup entries, got %+v", d.Lineup)
	}
	davis := d.Lineup[1]
	if !davis.Starter || davis.Position != string(player.PositionDefender) || davis.MinuteOff == nil || *davis.MinuteOff != 60 {
		t.Fatalf("unexpected starter %+v", davis)
	}
	sub := d.Lineup[2]
	if sub.Starter || sub.MinuteOn == nil || *sub.MinuteOn != 60 || *sub.ShirtNumber != 23 {
		t.Fatalf("unexpected substitute %+v", sub)
	}
}

func TestAdapter_FetchMatchDetail_NotFound(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, nil)
	_, err := adapter.FetchMatchDetail(context.Background(), "1")
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdapter_FetchStandings(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, map[string]string{
		"/v4/competitions/ELC/standings?season=2025": `{"standings": [
			{"stage": "REGULAR_SEASON", "type": "TOTAL", "table": [
				{"position": 1, "team": {"id": 349, "name": "Ipswich Town FC"}, "playedGames": 1, "form": "W",
				 "won": 1, "draw": 0, "lost": 0, "points": 3, "goalsFor": 2, "goalsAgainst": 1},
				{"position": 24, "team": {"id": 332, "name": "Birmingham City FC"}, "playedGames": 1, "form": null,
				 "won": 0, "draw": 0, "lost": 1, "points": 0, "goalsFor": 1, "goalsAgainst": 2}
			]},
			{"stage": "REGULAR_SEASON", "type": "HOME", "table": [
				{"position": 1, "team": {"id": 349, "name": "Ipswich Town FC"}, "playedGames": 1, "won": 1, "points": 3}
			]}
		]}`,
	})

	rows, err := adapter.FetchStandings(context.Background(), "championship", "2025/26")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected the TOTAL table only, got %+v", rows)
	}
	if top := rows[0]; top.ProviderID != "349" || top.Points != 3 || top.Form != "W" || top.SeasonName != "2025/26" || top.CompetitionCode != "championship" {
		t.Fatalf("unexpected top row %+v", top)
	}

	cup, err := adapter.FetchStandings(context.Background(), "fa_cup", "2025/26")
	if err != nil || cup != nil {
		t.Fatalf("unmapped competition must yield no rows, got %v %v", cup, err)
	}

	// PL has a code but no table at this season
	none, err := adapter.FetchStandings(context.Background(), "premier_league", "2025/26")
	if err != nil || none != nil {
		t.Fatalf("missing table must yield no rows, got %v %v", none, err)
	}
}

func TestMapStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]match.Status{
		"SCHEDULED": match.StatusScheduled,
		"TIMED":     match.StatusScheduled,
		"IN_PLAY":   match.StatusLive,
		"PAUSED":    match.StatusLive,
		"FINISHED":  match.StatusFinished,
		"AWARDED":   match.StatusFinished,
		"POSTPONED": match.StatusPostponed,
		"SUSPENDED": match.StatusPostponed,
		"CANCELLED": match.StatusCancelled,
		"mystery":   match.StatusScheduled,
	}
	for raw, want := range cases {
		if got := mapStatus(raw); got != want {
			t.Fatalf("mapStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}
