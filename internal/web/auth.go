package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/poshledger/internal/auth"
	"github.com/erazemk/poshledger/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", &PageData{
			Title: "Sign in",
			Error: "Enter your username and password.",
		})
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
	}
	if err != nil || !user.Active() {
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Sign in",
			Error: "Wrong username or password.",
		})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Sign in",
			Error: "Wrong username or password.",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.Identity())
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", &PageData{
			Title: "Sign in",
			Error: "Sign in failed, try again.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry / time.Second),
	})

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}

// Logout handles POST /logout. A valid session token is revoked before the
// cookie is cleared.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookie); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil && claims.ID != "" {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.Expiry()); err != nil {
				slog.Error("failed to revoke token", "error", err)
			} else {
				slog.Info("user logged out", "user", claims.Username)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
