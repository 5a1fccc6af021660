package footballdata

type area struct {
	Name string `json:"name"`
}

type personRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type teamPayload struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	ShortName   string        `json:"shortName"`
	TLA         string        `json:"tla"`
	Area        area          `json:"area"`
	Address     string        `json:"address"`
	Website     string        `json:"website"`
	Founded     *int          `json:"founded"`
	ClubColors  string        `json:"clubColors"`
	Venue       string        `json:"venue"`
	Squad       []squadMember `json:"squad"`
	LastUpdated string        `json:"lastUpdated"`
}

type squadMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	DateOfBirth string `json:"dateOfBirth"`
	Nationality string `json:"nationality"`
	ShirtNumber *int   `json:"shirtNumber"`
}

type matchesPayload struct {
	Matches []matchPayload `json:"matches"`
}

type competitionRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type seasonRef struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type scorePayload struct {
	FullTime scorePair `json:"fullTime"`
	HalfTime scorePair `json:"halfTime"`
}

type referee struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type lineupPlayer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	ShirtNumber *int   `json:"shirtNumber"`
}

type teamStatistics struct {
	CornerKicks    *int     `json:"corner_kicks"`
	Fouls          *int     `json:"fouls"`
	BallPossession *float64 `json:"ball_possession"`
	Shots          *int     `json:"shots"`
	ShotsOnGoal    *int     `json:"shots_on_goal"`
	Offsides       *int     `json:"offsides"`
	YellowCards    *int     `json:"yellow_cards"`
	YellowRedCards *int     `json:"yellow_red_cards"`
	RedCards       *int     `json:"red_cards"`
}

type matchTeam struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	ShortName  string          `json:"shortName"`
	Lineup     []lineupPlayer  `json:"lineup"`
	Bench      []lineupPlayer  `json:"bench"`
	Statistics *teamStatistics `json:"statistics"`
}

type goalPayload struct {
	Minute     *int       `json:"minute"`
	InjuryTime *int       `json:"injuryTime"`
	Type       string     `json:"type"`
	Team       personRef  `json:"team"`
	Scorer     *personRef `json:"scorer"`
	Assist     *personRef `json:"assist"`
}

type bookingPayload struct {
	Minute *int      `json:"minute"`
	Team   personRef `json:"team"`
	Player personRef `json:"player"`
	Card   string    `json:"card"`
}

type substitutionPayload struct {
	Minute    *int      `json:"minute"`
	Team      personRef `json:"team"`
	PlayerOut personRef `json:"playerOut"`
	PlayerIn  personRef `json:"playerIn"`
}

// matchPayload is one entry of /teams/{id}/matches and the whole body of
// /matches/{id}. Events and lineups only appear on the latter.
type matchPayload struct {
	ID            int64                 `json:"id"`
	UTCDate       string                `json:"utcDate"`
	Status        string                `json:"status"`
	Matchday      *int                  `json:"matchday"`
	Stage         string                `json:"stage"`
	Venue         string                `json:"venue"`
	Attendance    *int                  `json:"attendance"`
	LastUpdated   string                `json:"lastUpdated"`
	Competition   competitionRef        `json:"competition"`
	Season        seasonRef             `json:"season"`
	HomeTeam      matchTeam             `json:"homeTeam"`
	AwayTeam      matchTeam             `json:"awayTeam"`
	Score         scorePayload          `json:"score"`
	Referees      []referee             `json:"referees"`
	Goals         []goalPayload         `json:"goals"`
	Bookings      []bookingPayload      `json:"bookings"`
	Substitutions []substitutionPayload `json:"substitutions"`
}

type standingsPayload struct {
	Standings []standingGroup `json:"standings"`
}

type standingGroup struct {
	Stage string     `json:"stage"`
	Type  string     `json:"type"`
	Table []tableRow `json:"table"`
}

type tableRow struct {
	Position     int       `json:"position"`
	Team         personRef `json:"team"`
	PlayedGames  int       `json:"playedGames"`
	Form         string    `json:"form"`
	Won          int       `json:"won"`
	Draw         int       `json:"draw"`
	Lost         int       `json:"lost"`
	Points       int       `json:"points"`
	GoalsFor     int       `json:"goalsFor"`
	GoalsAgainst int       `json:"goalsAgainst"`
}
