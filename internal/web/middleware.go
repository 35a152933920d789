package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/poshledger/internal/api"
	"github.com/erazemk/poshledger/internal/auth"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

// authCookie is the name of the cookie carrying the session JWT.
const authCookie = "token"

// CookieAuthMiddleware admits requests carrying a valid, unrevoked session
// cookie and stores its claims in the request context. Anything else is sent
// to the login page with the cookie cleared.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := sessionClaims(r, secret, db)
			if !ok {
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			api.SetRequestUser(r.Context(), claims.Username)
			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionClaims(r *http.Request, secret string, db *sql.DB) (*auth.Claims, bool) {
	cookie, err := r.Cookie(authCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		return nil, false
	}
	if claims.ID == "" {
		return claims, true
	}
	revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
	if err != nil {
		slog.Error("failed to check token revocation", "error", err)
		return nil, false
	}
	return claims, !revoked
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// RequireWebRole returns middleware that answers 403 unless the signed-in
// user has at least the given role.
func RequireWebRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetWebClaims(r.Context())
			if claims == nil || !model.RoleAtLeast(claims.Role, minimum) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
