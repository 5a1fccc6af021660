package thesportsdb

import (
	"bytes"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// text decodes TheSportsDB's loosely typed fields. Strings, bare numbers and
// null all land as trimmed text.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] != '"' {
		*t = text(trimmed)
		return nil
	}

	var value string
	if err := sonic.Unmarshal(trimmed, &value); err != nil {
		return err
	}
	*t = text(strings.TrimSpace(value))
	return nil
}

func (t text) String() string {
	return string(t)
}

func (t text) intPtr() *int {
	value := strings.TrimSpace(string(t))
	if value == "" {
		return nil
	}
	if v, err := strconv.Atoi(value); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func (t text) intValue() int {
	if v := t.intPtr(); v != nil {
		return *v
	}
	return 0
}

func (t text) floatPtr() *float64 {
	value := strings.TrimSuffix(strings.TrimSpace(string(t)), "%")
	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil
	}
	return &v
}

type teamsEnvelope struct {
	Teams []teamItem `json:"teams"`
}

type teamItem struct {
	ID         text `json:"idTeam"`
	Name       text `json:"strTeam"`
	ShortName  text `json:"strTeamShort"`
	FormedYear text `json:"intFormedYear"`
	Stadium    text `json:"strStadium"`
	Location   text `json:"strLocation"`
	Country    text `json:"strCountry"`
	Website    text `json:"strWebsite"`
	Colour1    text `json:"strColour1"`
	Colour2    text `json:"strColour2"`
	Colour3    text `json:"strColour3"`
}

type playersEnvelope struct {
	Players []playerItem `json:"player"`
}

type playerItem struct {
	ID          text `json:"idPlayer"`
	Name        text `json:"strPlayer"`
	Position    text `json:"strPosition"`
	Nationality text `json:"strNationality"`
	DateBorn    text `json:"dateBorn"`
	Number      text `json:"strNumber"`
}

// eventsEnvelope covers eventsseason/eventsnext/lookupevent ("events") and
// eventslast ("results").
type eventsEnvelope struct {
	Events  []eventItem `json:"events"`
	Results []eventItem `json:"results"`
}

func (e eventsEnvelope) all() []eventItem {
	out := make([]eventItem, 0, len(e.Events)+len(e.Results))
	out = append(out, e.Events...)
	return append(out, e.Results...)
}

type eventItem struct {
	ID            text `json:"idEvent"`
	LeagueID      text `json:"idLeague"`
	Season        text `json:"strSeason"`
	HomeTeam      text `json:"strHomeTeam"`
	AwayTeam      text `json:"strAwayTeam"`
	HomeTeamID    text `json:"idHomeTeam"`
	AwayTeamID    text `json:"idAwayTeam"`
	HomeScore     text `json:"intHomeScore"`
	AwayScore     text `json:"intAwayScore"`
	HomeScoreHT   text `json:"intHomeScoreHT"`
	AwayScoreHT   text `json:"intAwayScoreHT"`
	Round         text `json:"intRound"`
	DateEvent     text `json:"dateEvent"`
	Time          text `json:"strTime"`
	Timestamp     text `json:"strTimestamp"`
	Venue         text `json:"strVenue"`
	Status        text `json:"strStatus"`
	Postponed     text `json:"strPostponed"`
	Referee       text `json:"strReferee"`
	Spectators    text `json:"intSpectators"`
	HomeShots     text `json:"intHomeShots"`
	AwayShots     text `json:"intAwayShots"`
	HomeOnTarget  text `json:"intHomeShotsOnTarget"`
	AwayOnTarget  text `json:"intAwayShotsOnTarget"`
	HomePossess   text `json:"intHomePossession"`
	AwayPossess   text `json:"intAwayPossession"`
	HomeCorners   text `json:"intHomeCorners"`
	AwayCorners   text `json:"intAwayCorners"`
	HomeFouls     text `json:"intHomeFouls"`
	AwayFouls     text `json:"intAwayFouls"`
	HomeYellows   text `json:"intHomeYellowCards"`
	AwayYellows   text `json:"intAwayYellowCards"`
	HomeReds      text `json:"intHomeRedCards"`
	AwayReds      text `json:"intAwayRedCards"`
	HomeGoals     text `json:"strHomeGoalDetails"`
	AwayGoals     text `json:"strAwayGoalDetails"`
	HomeYellowLog text `json:"strHomeYellowCards"`
	AwayYellowLog text `json:"strAwayYellowCards"`
	HomeRedLog    text `json:"strHomeRedCards"`
	AwayRedLog    text `json:"strAwayRedCards"`
	HomeKeeper    text `json:"strHomeLineupGoalkeeper"`
	HomeDefense   text `json:"strHomeLineupDefense"`
	HomeMidfield  text `json:"strHomeLineupMidfield"`
	HomeForward   text `json:"strHomeLineupForward"`
	HomeSubs      text `json:"strHomeLineupSubstitutes"`
	AwayKeeper    text `json:"strAwayLineupGoalkeeper"`
	AwayDefense   text `json:"strAwayLineupDefense"`
	AwayMidfield  text `json:"strAwayLineupMidfield"`
	AwayForward   text `json:"strAwayLineupForward"`
	AwaySubs      text `json:"strAwayLineupSubstitutes"`
}

type tableEnvelope struct {
	Table []tableRow `json:"table"`
}

type tableRow struct {
	TeamID       text `json:"idTeam"`
	TeamName     text `json:"strTeam"`
	Rank         text `json:"intRank"`
	Played       text `json:"intPlayed"`
	Won          text `json:"intWin"`
	Drawn        text `json:"intDraw"`
	Lost         text `json:"intLoss"`
	GoalsFor     text `json:"intGoalsFor"`
	GoalsAgainst text `json:"intGoalsAgainst"`
	Points       text `json:"intPoints"`
	Form         text `json:"strForm"`
	Updated      text `json:"dateUpdated"`
}
