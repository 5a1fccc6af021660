package postgres

import (
	"database/sql"
	"time"
)

type matchDetailTableModel struct {
	MatchID   string    `db:"match_id"`
	Source    string    `db:"source"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamStatisticsTableModel struct {
	MatchID       string          `db:"match_id"`
	Side          string          `db:"side"`
	TeamID        string          `db:"team_id"`
	Possession    sql.NullFloat64 `db:"possession"`
	Shots         sql.NullInt64   `db:"shots"`
	ShotsOnTarget sql.NullInt64   `db:"shots_on_target"`
	Corners       sql.NullInt64   `db:"corners"`
	Fouls         sql.NullInt64   `db:"fouls"`
	YellowCards   sql.NullInt64   `db:"yellow_cards"`
	RedCards      sql.NullInt64   `db:"red_cards"`
	Offsides      sql.NullInt64   `db:"offsides"`
}

type goalTableModel struct {
	MatchID  string         `db:"match_id"`
	Ordinal  int            `db:"ordinal"`
	TeamID   string         `db:"team_id"`
	PlayerID sql.NullString `db:"player_id"`
	Scorer   string         `db:"scorer"`
	AssistID sql.NullString `db:"assist_id"`
	Minute   int            `db:"minute"`
	OwnGoal  bool           `db:"own_goal"`
	Penalty  bool           `db:"penalty"`
}

type cardTableModel struct {
	MatchID  string         `db:"match_id"`
	Ordinal  int            `db:"ordinal"`
	TeamID   string         `db:"team_id"`
	PlayerID sql.NullString `db:"player_id"`
	Player   string         `db:"player"`
	Minute   int            `db:"minute"`
	CardType string         `db:"card_type"`
}

type lineupTableModel struct {
	MatchID     string         `db:"match_id"`
	Ordinal     int            `db:"ordinal"`
	TeamID      string         `db:"team_id"`
	PlayerID    sql.NullString `db:"player_id"`
	Player      string         `db:"player"`
	Position    string         `db:"position"`
	ShirtNumber sql.NullInt64  `db:"shirt_number"`
	Starter     bool           `db:"starter"`
	MinuteOn    sql.NullInt64  `db:"minute_on"`
	MinuteOff   sql.NullInt64  `db:"minute_off"`
}

type playerMatchStatTableModel struct {
	MatchID       string `db:"match_id"`
	PlayerID      string `db:"player_id"`
	TeamID        string `db:"team_id"`
	Started       bool   `db:"started"`
	MinutesPlayed int    `db:"minutes_played"`
	Goals         int    `db:"goals"`
	Assists       int    `db:"assists"`
	YellowCards   int    `db:"yellow_cards"`
	RedCards      int    `db:"red_cards"`
}
