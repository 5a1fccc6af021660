package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID                string        `db:"id"`
	SeasonName        string        `db:"season_name"`
	CompetitionCode   string        `db:"competition_code"`
	MatchDate         time.Time     `db:"match_date"`
	KickoffAt         sql.NullTime  `db:"kickoff_at"`
	HomeTeamID        string        `db:"home_team_id"`
	AwayTeamID        string        `db:"away_team_id"`
	HomeScore         sql.NullInt64 `db:"home_score"`
	AwayScore         sql.NullInt64 `db:"away_score"`
	HalfTimeHomeScore sql.NullInt64 `db:"half_time_home_score"`
	HalfTimeAwayScore sql.NullInt64 `db:"half_time_away_score"`
	Status            string        `db:"status"`
	Round             string        `db:"round"`
	Venue             string        `db:"venue"`
	Referee           string        `db:"referee"`
	Attendance        sql.NullInt64 `db:"attendance"`
	StateSource       string        `db:"state_source"`
	SourceUpdatedAt   sql.NullTime  `db:"source_updated_at"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

type matchInsertModel struct {
	ID                string     `db:"id"`
	SeasonName        string     `db:"season_name"`
	CompetitionCode   string     `db:"competition_code"`
	MatchDate         string     `db:"match_date"`
	KickoffAt         *time.Time `db:"kickoff_at"`
	HomeTeamID        string     `db:"home_team_id"`
	AwayTeamID        string     `db:"away_team_id"`
	HomeScore         *int       `db:"home_score"`
	AwayScore         *int       `db:"away_score"`
	HalfTimeHomeScore *int       `db:"half_time_home_score"`
	HalfTimeAwayScore *int       `db:"half_time_away_score"`
	Status            string     `db:"status"`
	Round             string     `db:"round"`
	Venue             string     `db:"venue"`
	Referee           string     `db:"referee"`
	Attendance        *int       `db:"attendance"`
	StateSource       string     `db:"state_source"`
	SourceUpdatedAt   *time.Time `db:"source_updated_at"`
}
