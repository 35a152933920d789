package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/poshledger/internal/model"
)

var ana = model.Identity{UserID: 7, Username: "ana", Role: model.RoleUser}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	admin := model.Identity{UserID: 1, Username: "admin", Role: model.RoleAdmin}

	token, err := GenerateToken(secret, admin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got := claims.Identity(); got != admin {
		t.Errorf("identity = %+v, want %+v", got, admin)
	}
	if claims.ID == "" {
		t.Error("token has no id")
	}

	// Expiry should be within a few seconds of now + TokenExpiry.
	diff := time.Until(claims.Expiry()) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry off by %v", diff)
	}
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	a, _ := GenerateToken("s", ana)
	b, _ := GenerateToken("s", ana)
	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Errorf("two sessions share token id %q", ca.ID)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good, _ := GenerateToken("secret1", ana)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte("secret1"))

	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret1"))

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret1"))

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret1"))

	tests := []struct {
		name, secret, token string
	}{
		{"wrong secret", "secret2", good},
		{"garbage", "secret1", "not-a-token"},
		{"expired", "secret1", expired},
		{"other issuer", "secret1", foreign},
		{"no user", "secret1", noUser},
		{"other algorithm", "secret1", hs512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.secret, tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClaimsIdentityNil(t *testing.T) {
	var none *Claims
	if none.Identity().Valid() {
		t.Error("nil claims must not yield a valid identity")
	}
}

func TestGenerateTokenRequiresSecretAndUser(t *testing.T) {
	if _, err := GenerateToken("", ana); !errors.Is(err, errEmptySecret) {
		t.Errorf("empty secret: got %v", err)
	}
	if _, err := GenerateToken("s", model.Identity{Username: "ghost"}); !errors.Is(err, errNoSubject) {
		t.Errorf("no user id: got %v", err)
	}
}
