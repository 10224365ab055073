package dbopen

import (
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenMemory(t *testing.T) {
	// WHAT: In-memory open applies pragmas and accepts DDL.
	// WHY: Every SQLite-backed test in the repo goes through OpenMemory.
	db := OpenMemory(t)

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t (v) VALUES ('x')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count: got %d, want 1", n)
	}
}

func TestOpen_WithSchema(t *testing.T) {
	// WHAT: Inline schema runs after pragmas.
	// WHY: Callers open their database and schema in one call.
	db := OpenMemory(t, WithSchema(`CREATE TABLE s (k TEXT PRIMARY KEY)`))

	if _, err := db.Exec(`INSERT INTO s (k) VALUES ('a')`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}
}

func TestOpen_ForeignKeysPragma(t *testing.T) {
	// WHAT: foreign_keys defaults to ON.
	// WHY: Referential integrity must hold without per-connection setup.
	db := OpenMemory(t)

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys: got %d, want 1", fk)
	}
}
