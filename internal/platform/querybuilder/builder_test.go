package querybuilder

import (
	"strings"
	"testing"
)

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Select("*").
		From("matches").
		Where(Eq("home_team_id", "t1"), Between("match_date", "2025-08-01", "2025-08-31"), IsNull("kickoff_at")).
		OrderBy("match_date", "id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM matches WHERE home_team_id = $1 AND match_date BETWEEN $2 AND $3 AND kickoff_at IS NULL ORDER BY match_date, id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "t1" || args[2] != "2025-08-31" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_MultiRowUpsert(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("external_ids").
		Columns("source", "provider_id", "internal_id").
		Values("thesportsdb", "133884", "t1").
		Values("football_data", "349", "t1").
		OnConflict("source", "provider_id").
		DoUpdate("internal_id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO external_ids (source, provider_id, internal_id) VALUES ($1, $2, $3), ($4, $5, $6)" +
		" ON CONFLICT (source, provider_id) DO UPDATE SET internal_id = EXCLUDED.internal_id, updated_at = NOW()"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[3] != "football_data" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]*InsertBuilder{
		"row width":      InsertInto("teams").Columns("id", "name").Values("t1"),
		"update first":   InsertInto("teams").Columns("id").Values("t1").DoUpdate("name"),
		"empty conflict": InsertInto("teams").Columns("id").Values("t1").OnConflict("id"),
		"nothing+update": InsertInto("teams").Columns("id").Values("t1").OnConflict("id").DoUpdate("name").DoNothing(),
		"no values":      InsertInto("teams").Columns("id"),
	}
	for name, b := range cases {
		if _, _, err := b.ToSQL(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

type upsertRow struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	City      *string `db:"city,omitempty"`
	CreatedAt string  `db:"created_at"`
	internal  string
	Skipped   string `db:"-"`
}

func TestUpsertModel(t *testing.T) {
	t.Parallel()

	query, args, err := UpsertModel("teams", upsertRow{ID: "t1", Name: "Ipswich Town", CreatedAt: "now"}, "id").
		Touch("updated_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build upsert query: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name, city, created_at) VALUES ($1, $2, $3, $4)" +
		" ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, city = EXCLUDED.city, updated_at = NOW()"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[1] != "Ipswich Town" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("teams", (*upsertRow)(nil)).ToSQL(); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("teams", 42).ToSQL(); err == nil || !strings.Contains(err.Error(), "struct") {
		t.Fatalf("expected struct error, got %v", err)
	}
}

func TestDeleteBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := DeleteFrom("goals").Where(Eq("match_id", "m1")).ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM goals WHERE match_id = $1" || len(args) != 1 || args[0] != "m1" {
		t.Fatalf("unexpected delete %q %+v", query, args)
	}

	if _, _, err := DeleteFrom("goals").ToSQL(); err == nil {
		t.Fatalf("expected error for unfiltered delete")
	}
}
