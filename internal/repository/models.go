package repository

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account in the database.
type User struct {
	ID                    uuid.UUID  `db:"id"`
	Username              string     `db:"username"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	FirstName             string     `db:"first_name"`
	LastName              string     `db:"last_name"`
	Enabled               bool       `db:"enabled"`
	AccountNonExpired     bool       `db:"account_non_expired"`
	AccountNonLocked      bool       `db:"account_non_locked"`
	CredentialsNonExpired bool       `db:"credentials_non_expired"`
	FailedLoginAttempts   int        `db:"failed_login_attempts"`
	LastLoginAt           *time.Time `db:"last_login_at"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`

	// Roles assigned to the user, loaded alongside the row.
	Roles []Role
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Role is a named authorization grouping (e.g. "ROLE_USER").
// Roles are created at bootstrap and effectively immutable afterwards.
type Role struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`

	Privileges []Privilege
}

// Privilege is a fine-grained capability tag attached to roles
// (e.g. "READ_PRIVILEGE"). Modeled for completeness; the request gate
// authorizes on role names only.
type Privilege struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
}

// Session is server-side login state bound to an opaque cookie token.
// Only the SHA-256 hash of the token is stored.
type Session struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	TokenHash  string    `db:"token_hash"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at"`
	IPAddress  *string   `db:"ip_address"`
	UserAgent  *string   `db:"user_agent"`
}

// RememberToken is a long-lived credential-less re-login token issued
// when the user checks "remember me". Stored hashed, 24 hour validity.
type RememberToken struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
