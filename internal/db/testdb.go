package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an empty in-memory ledger database that is closed when
// the test ends.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	database, err := Open(MemoryPath)
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		tb.Fatalf("applying schema: %v", err)
	}
	return database
}
