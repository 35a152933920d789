package model

import (
	"fmt"
	"time"
)

// User represents an authentication user. Every item belongs to exactly one user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the account has not been deleted.
func (u *User) Active() bool { return u != nil && u.DeletedAt == nil }

// Identity returns who the user acts as once signed in.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Roles. An admin manages accounts in addition to their own items.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var roleLevels = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ErrPasswordTooShort is returned by ValidatePassword.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return roleLevels[role] > 0
}

// RoleAtLeast reports whether role grants everything minimum does. Unknown
// roles never qualify.
func RoleAtLeast(role, minimum string) bool {
	need := roleLevels[minimum]
	return need > 0 && roleLevels[role] >= need
}

// ValidatePassword checks a new password against the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Identity is the authenticated user an operation runs on behalf of.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

// Valid reports whether the identity names a user.
func (id Identity) Valid() bool { return id.UserID > 0 }
