package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	HashCost = bcrypt.MinCost
	t.Cleanup(func() { HashCost = bcrypt.DefaultCost })

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash equals the plain password")
	}

	if !CheckPassword(hash, "correct horse") {
		t.Error("matching password rejected")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("wrong password accepted")
	}
	if CheckPassword("not-a-hash", "correct horse") {
		t.Error("malformed hash accepted")
	}
}
