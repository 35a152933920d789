// Package auth issues and checks session tokens and password hashes.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/poshledger/internal/model"
)

const (
	// TokenExpiry is how long a session token stays valid.
	TokenExpiry = 7 * 24 * time.Hour
	// Issuer is the iss claim of every token signed here.
	Issuer = "poshledger"
)

var (
	errEmptySecret = errors.New("empty signing secret")
	errNoSubject   = errors.New("token has no user")
)

// Claims is the payload of a session token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the user the claims were issued to. Nil claims yield the
// zero identity, which is not valid.
func (c *Claims) Identity() model.Identity {
	if c == nil {
		return model.Identity{}
	}
	return model.Identity{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

// Expiry returns when the token stops being accepted.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Now().Add(TokenExpiry)
	}
	return c.ExpiresAt.Time
}

// GenerateToken signs a session token for who with a fresh random ID, so
// the session can be revoked on its own.
func GenerateToken(secret string, who model.Identity) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	if !who.Valid() {
		return "", errNoSubject
	}

	jti, err := randomID()
	if err != nil {
		return "", fmt.Errorf("generating token id: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   who.UserID,
		Username: who.Username,
		Role:     who.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, issuer and expiry of tokenStr and
// returns its claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.UserID <= 0 {
		return nil, errNoSubject
	}
	return claims, nil
}

func randomID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
