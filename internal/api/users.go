package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/poshledger/internal/auth"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

// UsersHandler manages accounts. Every route is admin only.
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Role string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// userStoreError answers a failed store write on user id, returning 404 when
// the account is gone or already deleted.
func userStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	slog.Error("failed to "+op, "error", err)
	jsonError(w, http.StatusInternalServerError, "failed to "+op)
}

// hashNewPassword validates and hashes a password chosen for an account.
// It writes the error response itself and reports whether to continue.
func hashNewPassword(w http.ResponseWriter, password string) (string, bool) {
	if err := model.ValidatePassword(password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return "", false
	}
	return hash, true
}

func (h *UsersHandler) username(r *http.Request, id int64) string {
	u, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || u == nil {
		return describeUser("", id)
	}
	return u.Username
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, password and role required")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing.Active() {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	hash, ok := hashNewPassword(w, req.Password)
	if !ok {
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.Role)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	slog.Info("user created", "user", GetClaims(r.Context()).Username, "new_user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}. Only the role can change.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, req.Role); err != nil {
		userStoreError(w, err, "update user")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || user == nil {
		userStoreError(w, store.ErrNotFound, "update user")
		return
	}
	slog.Info("user role updated", "user", GetClaims(r.Context()).Username, "target_user", user.Username, "new_role", user.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	hash, ok := hashNewPassword(w, req.Password)
	if !ok {
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		userStoreError(w, err, "reset password")
		return
	}

	slog.Info("user password reset", "user", GetClaims(r.Context()).Username, "target_user", h.username(r, id))
	jsonMessage(w, "password reset")
}

// Delete handles DELETE /api/users/{id}. The account is soft-deleted and its
// items stay in the ledger.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target := h.username(r, id)
	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		userStoreError(w, err, "delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", target)
	jsonMessage(w, "user deleted")
}
