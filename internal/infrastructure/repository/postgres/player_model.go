package postgres

import (
	"database/sql"
	"time"
)

type playerTableModel struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	NormalizedName  string         `db:"normalized_name"`
	DateOfBirth     sql.NullTime   `db:"date_of_birth"`
	Nationality     string         `db:"nationality"`
	Position        string         `db:"position"`
	SquadNumber     sql.NullInt64  `db:"squad_number"`
	TeamID          sql.NullString `db:"team_id"`
	JoinedAt        sql.NullTime   `db:"joined_at"`
	LeftAt          sql.NullTime   `db:"left_at"`
	SourceUpdatedAt sql.NullTime   `db:"source_updated_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

type playerInsertModel struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	NormalizedName  string     `db:"normalized_name"`
	DateOfBirth     *string    `db:"date_of_birth"`
	Nationality     string     `db:"nationality"`
	Position        string     `db:"position"`
	SquadNumber     *int       `db:"squad_number"`
	TeamID          *string    `db:"team_id"`
	JoinedAt        *time.Time `db:"joined_at"`
	LeftAt          *time.Time `db:"left_at"`
	SourceUpdatedAt *time.Time `db:"source_updated_at"`
}
