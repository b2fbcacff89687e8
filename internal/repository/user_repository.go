package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrEmailAlreadyExists    = errors.New("email already exists")
)

// UserRepository defines the interface for user data access.
// The authentication core depends only on this interface so it can be
// exercised against an in-memory fake.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// RecordLoginFailure atomically increments the failed-attempt counter
	// and flips the lock flag when the new count reaches maxAttempts.
	// Returns the counter value after the increment.
	RecordLoginFailure(ctx context.Context, username string, maxAttempts int) (int, error)
	// RecordLoginSuccess resets the failed-attempt counter and stamps
	// last_login_at in a single statement.
	RecordLoginSuccess(ctx context.Context, username string, at time.Time) error

	SetLocked(ctx context.Context, username string, locked bool) error
	SetEnabled(ctx context.Context, username string, enabled bool) error
	ResetFailedAttempts(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username string, passwordHash string) error

	AddRole(ctx context.Context, userID, roleID uuid.UUID) error
	RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error

	// FindInactiveSince lists users whose last login predates the cutoff.
	FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*User, error)
}

// userRepository implements UserRepository using PostgreSQL
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	enabled, account_non_expired, account_non_locked, credentials_non_expired,
	failed_login_attempts, last_login_at, created_at, updated_at`

// Create inserts a new user into the database with its role assignments.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name,
			enabled, account_non_expired, account_non_locked, credentials_non_expired,
			failed_login_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		user.Username,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Enabled,
		user.AccountNonExpired,
		user.AccountNonLocked,
		user.CredentialsNonExpired,
		user.FailedLoginAttempts,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		// Map unique constraint violations to sentinel errors
		if strings.Contains(err.Error(), "idx_users_username") {
			return ErrUsernameAlreadyExists
		}
		if strings.Contains(err.Error(), "idx_users_email") {
			return ErrEmailAlreadyExists
		}
		return err
	}

	for _, role := range user.Roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			user.ID, role.ID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a user by their ID, roles included.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username. The match is exact and
// case-sensitive.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

// GetByEmail retrieves a user by their email address (case-insensitive).
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + where

	user := &User{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Enabled,
		&user.AccountNonExpired,
		&user.AccountNonLocked,
		&user.CredentialsNonExpired,
		&user.FailedLoginAttempts,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// loadRoles populates user.Roles from the user_roles join table.
func (r *userRepository) loadRoles(ctx context.Context, user *User) error {
	query := `
		SELECT r.id, r.name, r.description
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.pool.Query(ctx, query, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	user.Roles = nil
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return err
		}
		user.Roles = append(user.Roles, role)
	}

	return rows.Err()
}

// UsernameExists checks if a username is already taken (case-sensitive).
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// EmailExists checks if an email address is already registered (case-insensitive).
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RecordLoginFailure increments failed_login_attempts and flips the lock
// flag in the same UPDATE once the counter reaches maxAttempts. The
// read-modify-write happens inside the statement, so two concurrent
// failures never lose an increment.
func (r *userRepository) RecordLoginFailure(ctx context.Context, username string, maxAttempts int) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    account_non_locked = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN FALSE
		        ELSE account_non_locked
		    END,
		    updated_at = NOW()
		WHERE username = $1
		RETURNING failed_login_attempts
	`

	var attempts int
	err := r.pool.QueryRow(ctx, query, username, maxAttempts).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	return attempts, nil
}

// RecordLoginSuccess resets the failed-attempt counter and records the
// login timestamp in a single statement.
func (r *userRepository) RecordLoginSuccess(ctx context.Context, username string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, last_login_at = $2, updated_at = NOW()
		WHERE username = $1
	`, username, at.UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLocked updates the account_non_locked flag. Unlocking also resets
// the failed-attempt counter; callers use ResetFailedAttempts for that.
func (r *userRepository) SetLocked(ctx context.Context, username string, locked bool) error {
	return r.setFlag(ctx, username, `account_non_locked`, !locked)
}

// SetEnabled updates the enabled flag.
func (r *userRepository) SetEnabled(ctx context.Context, username string, enabled bool) error {
	return r.setFlag(ctx, username, `enabled`, enabled)
}

func (r *userRepository) setFlag(ctx context.Context, username, column string, value bool) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET `+column+` = $2, updated_at = NOW() WHERE username = $1`,
		username, value,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetFailedAttempts sets the failed-attempt counter back to zero.
func (r *userRepository) ResetFailedAttempts(ctx context.Context, username string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET failed_login_attempts = 0, updated_at = NOW() WHERE username = $1`,
		username,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash and marks the
// credentials as current again.
func (r *userRepository) UpdatePassword(ctx context.Context, username string, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, credentials_non_expired = TRUE, updated_at = NOW()
		WHERE username = $1
	`, username, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddRole assigns a role to a user. Assigning an already-held role is a
// no-op.
func (r *userRepository) AddRole(ctx context.Context, userID, roleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID,
	)
	return err
}

// RemoveRole removes a role assignment from a user.
func (r *userRepository) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID,
	)
	return err
}

// FindInactiveSince lists users whose last login is older than the
// cutoff. Users who never logged in are excluded.
func (r *userRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE last_login_at < $1 ORDER BY last_login_at`

	rows, err := r.pool.Query(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.FirstName,
			&user.LastName,
			&user.Enabled,
			&user.AccountNonExpired,
			&user.AccountNonLocked,
			&user.CredentialsNonExpired,
			&user.FailedLoginAttempts,
			&user.LastLoginAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
