package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/poshledger/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

func scanUser(row rowScanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
}

// CreateUser creates a new user with an already hashed password.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username. An active account wins over
// soft-deleted ones with the same name; a deleted match is still returned so
// callers can refuse it explicitly.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?
		 ORDER BY deleted_at IS NOT NULL, id DESC LIMIT 1`, username,
	), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser changes an active user's role.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string) error {
	return updateActiveUser(ctx, db, "updating user", `role = ?`, role, id)
}

// UpdateUserPassword replaces an active user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	return updateActiveUser(ctx, db, "updating user password", `password_hash = ?`, passwordHash, id)
}

func updateActiveUser(ctx context.Context, db *sql.DB, op, set string, value any, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET `+set+` WHERE id = ? AND deleted_at IS NULL`, value, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOneRow(result, op)
}

// DeleteUser soft-deletes a user. The user's items are kept.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	return updateActiveUser(ctx, db, "deleting user", `deleted_at = ?`, time.Now().UTC(), id)
}
