package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/poshledger/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("fresh token reported as revoked")
	}

	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	// Revoking twice is fine.
	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}

	tests := []struct {
		jti  string
		want bool
	}{
		{"jti-1", true},
		{"jti-2", false},
	}
	for _, tt := range tests {
		got, err := IsTokenRevoked(ctx, database, tt.jti)
		if err != nil {
			t.Fatalf("IsTokenRevoked(%s): %v", tt.jti, err)
		}
		if got != tt.want {
			t.Errorf("IsTokenRevoked(%s) = %v, want %v", tt.jti, got, tt.want)
		}
	}
}

func TestRevokeTokenEmptyID(t *testing.T) {
	database := db.NewTestDB(t)
	if err := RevokeToken(context.Background(), database, "", time.Now().Add(time.Hour)); err == nil {
		t.Fatal("expected error for empty token id")
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := RevokeToken(ctx, database, "live", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	// Insert directly: RevokeToken would purge an already expired entry at once.
	if _, err := database.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`, "stale", now.Add(-time.Hour).UTC(),
	); err != nil {
		t.Fatal(err)
	}

	n, err := PurgeExpiredTokens(ctx, database, now)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d tokens, want 1", n)
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "live"); !revoked {
		t.Error("unexpired revocation was purged")
	}
}
