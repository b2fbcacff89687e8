package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session repository errors
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrRememberTokenNotFound = errors.New("remember token not found")
)

// SessionRepository defines the interface for session and remember-token
// data access.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	// Touch pushes expires_at forward on activity, keeping the idle
	// timeout sliding.
	Touch(ctx context.Context, id uuid.UUID, expiresAt, seenAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteByUserID removes every session for the user. Used to enforce
	// the one-concurrent-session cap (evict-old) and on logout.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)

	CreateRememberToken(ctx context.Context, token *RememberToken) error
	GetRememberTokenByHash(ctx context.Context, tokenHash string) (*RememberToken, error)
	DeleteRememberTokensByUserID(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredRememberTokens(ctx context.Context) (int64, error)
}

// sessionRepository implements SessionRepository using PostgreSQL
type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

// Create inserts a new session into the database.
func (r *sessionRepository) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (user_id, token_hash, expires_at, last_seen_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.pool.QueryRow(ctx, query,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.LastSeenAt,
		session.IPAddress,
		session.UserAgent,
	).Scan(&session.ID, &session.CreatedAt)
}

// GetByTokenHash retrieves a session by its token hash.
func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, last_seen_at, ip_address, user_agent
		FROM sessions
		WHERE token_hash = $1
	`

	session := &Session{}
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.IPAddress,
		&session.UserAgent,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return session, nil
}

// Touch updates the session's expiry and last-seen timestamps.
func (r *sessionRepository) Touch(ctx context.Context, id uuid.UUID, expiresAt, seenAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE sessions SET expires_at = $2, last_seen_at = $3 WHERE id = $1`,
		id, expiresAt.UTC(), seenAt.UTC(),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session by its ID.
func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteByTokenHash removes a session by its token hash.
func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteByUserID removes all sessions belonging to a user.
func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CleanupExpired removes all expired sessions from the database.
func (r *sessionRepository) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CreateRememberToken inserts a new remember-me token.
func (r *sessionRepository) CreateRememberToken(ctx context.Context, token *RememberToken) error {
	query := `
		INSERT INTO remember_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return r.pool.QueryRow(ctx, query,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

// GetRememberTokenByHash retrieves a remember-me token by its hash.
func (r *sessionRepository) GetRememberTokenByHash(ctx context.Context, tokenHash string) (*RememberToken, error) {
	token := &RememberToken{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM remember_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRememberTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

// DeleteRememberTokensByUserID removes all remember-me tokens for a user.
func (r *sessionRepository) DeleteRememberTokensByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM remember_tokens WHERE user_id = $1`, userID)
	return err
}

// CleanupExpiredRememberTokens removes expired remember-me tokens.
func (r *sessionRepository) CleanupExpiredRememberTokens(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM remember_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
