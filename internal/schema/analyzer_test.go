package schema_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"sqlprep/internal/apperr"
	"sqlprep/internal/dialect"
	"sqlprep/internal/schema"
)

// quotedSQLite behaves like SQLite but renders tablespace clauses like
// PostgreSQL, so tablespace resolution can be checked on a file database.
type quotedSQLite struct {
	dialect.SQLiteDialect
}

func (d *quotedSQLite) TablespaceClause(name string) string {
	return (&dialect.PostgresDialect{}).TablespaceClause(name)
}

func openTestDB(t *testing.T, stmts ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("setup %q: %v", s, err)
		}
	}
	return db
}

func lookupFrom(m map[string]string) schema.Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestAnalyze(t *testing.T) {
	db := openTestDB(t,
		"CREATE TABLE country_name (country_code TEXT, \"partition\" INT)",
		"INSERT INTO country_name VALUES ('de', 2), ('fr', 1), ('at', 2), ('xx', NULL)",
		"CREATE TABLE placex (place_id INT)",
	)

	snap, err := schema.Analyze(context.Background(), db, &quotedSQLite{}, "", lookupFrom(map[string]string{
		"TABLESPACE_SEARCH_DATA":   "dsearch",
		"TABLESPACE_ADDRESS_INDEX": "iaddress",
		"TABLESPACE_AUX_DATA":      "",
	}))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !snap.HasTable("country_name") || !snap.HasTable("placex") {
		t.Errorf("expected country_name and placex, got %v", snap.Tables())
	}
	if snap.HasTable("xxx") {
		t.Error("unexpected table xxx")
	}
	if got, want := snap.Partitions(), []string{"0", "1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Partitions() = %v, want %v", got, want)
	}

	ts := map[string]string{
		"search_data":   `TABLESPACE "dsearch"`,
		"address_index": `TABLESPACE "iaddress"`,
		"aux_data":      "",
		"address_data":  "",
	}
	for area, want := range ts {
		got, ok := snap.Tablespace(area)
		if !ok {
			t.Errorf("area %s missing", area)
		}
		if got != want {
			t.Errorf("Tablespace(%s) = %q, want %q", area, got, want)
		}
	}
	if !snap.ReverseOnly() {
		t.Error("ReverseOnly() should be true without search_name")
	}
}

func TestAnalyzeWithoutPartitionTable(t *testing.T) {
	db := openTestDB(t, "CREATE TABLE search_name (place_id INT)")

	snap, err := schema.Analyze(context.Background(), db, &dialect.SQLiteDialect{}, "", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := snap.Partitions(); !reflect.DeepEqual(got, []string{"0"}) {
		t.Errorf("Partitions() = %v, want [0]", got)
	}
	if snap.ReverseOnly() {
		t.Error("ReverseOnly() should be false with search_name present")
	}
	for _, area := range schema.Areas {
		if got, _ := snap.Tablespace(area); got != "" {
			t.Errorf("Tablespace(%s) = %q, want empty", area, got)
		}
	}
}

func TestAnalyzeIsReadOnly(t *testing.T) {
	db := openTestDB(t,
		"CREATE TABLE country_name (country_code TEXT, \"partition\" INT)",
		"INSERT INTO country_name VALUES ('de', 3)",
	)
	lookup := lookupFrom(map[string]string{"TABLESPACE_SEARCH_INDEX": "isearch"})

	first, err := schema.Analyze(context.Background(), db, &quotedSQLite{}, "", lookup)
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := schema.Analyze(context.Background(), db, &quotedSQLite{}, "", lookup)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}

	if !reflect.DeepEqual(first.Tables(), second.Tables()) {
		t.Errorf("tables changed: %v vs %v", first.Tables(), second.Tables())
	}
	if !reflect.DeepEqual(first.Partitions(), second.Partitions()) {
		t.Errorf("partitions changed: %v vs %v", first.Partitions(), second.Partitions())
	}
	if !reflect.DeepEqual(first.Tablespaces(), second.Tablespaces()) {
		t.Errorf("tablespaces changed: %v vs %v", first.Tablespaces(), second.Tablespaces())
	}
}

func TestAnalyzeConnectionError(t *testing.T) {
	db := openTestDB(t)
	db.Close()

	_, err := schema.Analyze(context.Background(), db, &dialect.SQLiteDialect{}, "", nil)
	var connErr *apperr.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	parts := []string{"0", "1"}
	snap := schema.NewSnapshot([]string{"a"}, parts, map[string]string{"aux_data": "x"}, nil)

	parts[0] = "changed"
	snap.Partitions()[1] = "changed"
	snap.Tablespaces()["aux_data"] = "changed"

	if got := snap.Partitions(); !reflect.DeepEqual(got, []string{"0", "1"}) {
		t.Errorf("partitions leaked a mutation: %v", got)
	}
	if got, _ := snap.Tablespace("aux_data"); got != "x" {
		t.Errorf("tablespaces leaked a mutation: %q", got)
	}
}
