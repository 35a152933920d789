package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.sqlite3")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := EnsureSchema(database); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}

	var version string
	if err := database.QueryRow(`SELECT value FROM settings WHERE key = 'schema_version'`).Scan(&version); err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if version != "1" {
		t.Errorf("expected schema version 1, got %q", version)
	}
}

func TestOpenEnforcesForeignKeysOnEveryConnection(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()
	database.SetMaxOpenConns(3)

	// Hold two connections so the pool has to open a third.
	ctx := context.Background()
	var held []*sql.Conn
	for i := 0; i < 2; i++ {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatal(err)
		}
		held = append(held, conn)
	}
	defer func() {
		for _, c := range held {
			c.Close()
		}
	}()

	var fk int
	if err := database.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d on a fresh connection, want 1", fk)
	}
}
