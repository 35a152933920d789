package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/poshledger/internal/auth"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

type usersPage struct {
	PageData
	Users []model.User
	Roles []string
}

// renderUsers shows the user list with an optional message.
func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	data := &usersPage{
		PageData: s.page(r, "Users"),
		Users:    users,
		Roles:    []string{model.RoleUser, model.RoleAdmin},
	}
	data.Error = errMsg
	data.Success = success
	s.Templates.RenderStatus(w, status, "users.html", data)
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	s.renderUsers(w, r, http.StatusOK, "", "")
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || password == "" || !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Enter a username, a password and a valid role.", "")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not create the user.", "")
		return
	}
	if existing.Active() {
		s.renderUsers(w, r, http.StatusConflict, "That username is taken.", "")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, username, hash, role); err != nil {
		slog.Error("failed to create user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not create the user.", "")
		return
	}

	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := userID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, hash); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("failed to reset password", "error", err)
		}
		s.renderUsers(w, r, http.StatusNotFound, "User not found.", "")
		return
	}

	slog.Info("user password reset", "user", claims.Username, "target_id", id)
	s.renderUsers(w, r, http.StatusOK, "", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := userID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Unknown role.", "")
		return
	}
	if id == claims.UserID && role != model.RoleAdmin {
		s.renderUsers(w, r, http.StatusBadRequest, "You cannot remove your own admin role.", "")
		return
	}

	if err := store.UpdateUser(r.Context(), s.DB, id, role); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("failed to update user", "error", err)
		}
		s.renderUsers(w, r, http.StatusNotFound, "User not found.", "")
		return
	}

	slog.Info("user role updated", "user", claims.Username, "target_id", id, "new_role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := userID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if id == claims.UserID {
		s.renderUsers(w, r, http.StatusBadRequest, "You cannot delete yourself.", "")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("failed to delete user", "error", err)
		}
		s.renderUsers(w, r, http.StatusNotFound, "User not found.", "")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_id", id)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Settings")
	s.Templates.Render(w, "settings.html", &data)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	data := s.page(r, "Settings")
	fail := func(status int, msg string) {
		data.Error = msg
		s.Templates.RenderStatus(w, status, "settings.html", &data)
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		fail(http.StatusBadRequest, "Enter your current and new password.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		slog.Error("failed to get user", "error", err)
		fail(http.StatusInternalServerError, "Could not load your account.")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		fail(http.StatusUnauthorized, "Your current password is wrong.")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		fail(http.StatusInternalServerError, "Could not save the password.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash); err != nil {
		slog.Error("failed to update password", "error", err)
		fail(http.StatusInternalServerError, "Could not save the password.")
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	data.Success = "Password changed."
	s.Templates.Render(w, "settings.html", &data)
}
