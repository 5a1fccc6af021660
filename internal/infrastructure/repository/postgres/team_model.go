package postgres

import (
	"database/sql"
	"time"
)

type teamTableModel struct {
	ID              string        `db:"id"`
	Name            string        `db:"name"`
	NormalizedName  string        `db:"normalized_name"`
	ShortName       string        `db:"short_name"`
	City            string        `db:"city"`
	Stadium         string        `db:"stadium"`
	Country         string        `db:"country"`
	FoundedYear     sql.NullInt64 `db:"founded_year"`
	Website         string        `db:"website"`
	ClubColors      string        `db:"club_colors"`
	SourceUpdatedAt sql.NullTime  `db:"source_updated_at"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

type teamInsertModel struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	NormalizedName  string     `db:"normalized_name"`
	ShortName       string     `db:"short_name"`
	City            string     `db:"city"`
	Stadium         string     `db:"stadium"`
	Country         string     `db:"country"`
	FoundedYear     *int       `db:"founded_year"`
	Website         string     `db:"website"`
	ClubColors      string     `db:"club_colors"`
	SourceUpdatedAt *time.Time `db:"source_updated_at"`
}
