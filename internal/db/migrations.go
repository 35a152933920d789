package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// The index of the last applied statement is kept in settings, so each one runs
// once. Append new migrations at the end.
var migrations = []string{
	// Migration 1: list queries filter by owner and sort by name.
	`CREATE INDEX IF NOT EXISTS idx_items_owner_name ON items(owner_id, item_name)`,
}

// migrate applies the migrations that have not run yet.
func migrate(db *sql.DB) error {
	var applied int
	err := db.QueryRow(`SELECT CAST(value AS INTEGER) FROM settings WHERE key = 'schema_version'`).Scan(&applied)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := applied; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		_, err := db.Exec(
			`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			fmt.Sprint(i+1),
		)
		if err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}
	return nil
}
