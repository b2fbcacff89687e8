package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wahyudibo/secure-portal/internal/appctx"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// DefaultIdleTimeout invalidates a session after this much inactivity.
const DefaultIdleTimeout = 30 * time.Minute

// SessionManager issues and validates server-side sessions. Each user
// may hold at most one active session: a second successful login evicts
// the first (maxSessionsPreventsLogin=false semantics). Sessions expire
// after the idle timeout; each validated request slides the window.
type SessionManager struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	remember    *RememberTokenService
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionManager creates a new SessionManager instance
func NewSessionManager(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	remember *RememberTokenService,
	idleTimeout time.Duration,
	logger *slog.Logger,
) *SessionManager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		remember:    remember,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// IdleTimeout returns the configured idle timeout.
func (m *SessionManager) IdleTimeout() time.Duration {
	return m.idleTimeout
}

func (m *SessionManager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// IssueSession creates a new session for the user and returns the
// opaque token to place in the session cookie. Any existing session for
// the same user is evicted first.
func (m *SessionManager) IssueSession(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) (string, error) {
	evicted, err := m.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if evicted > 0 {
		m.logger.Info("evicted previous session on new login", "user_id", userID, "count", evicted)
	}

	token := uuid.NewString()
	now := m.clock().UTC()

	session := &repository.Session{
		UserID:     userID,
		TokenHash:  HashToken(token),
		ExpiresAt:  now.Add(m.idleTimeout),
		LastSeenAt: now,
	}
	if ipAddress != "" {
		session.IPAddress = &ipAddress
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := m.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

// Validate resolves a session token to its principal. Expired sessions
// are deleted lazily and reported as expired; valid ones get their idle
// window extended. A session whose user has since been disabled or
// locked is treated as gone.
func (m *SessionManager) Validate(ctx context.Context, token string) (*appctx.Principal, error) {
	session, err := m.sessionRepo.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	now := m.clock().UTC()
	if now.After(session.ExpiresAt) {
		_ = m.sessionRepo.Delete(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	user, err := m.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = m.sessionRepo.Delete(ctx, session.ID)
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if !user.Enabled || !user.AccountNonLocked {
		_ = m.sessionRepo.Delete(ctx, session.ID)
		return nil, ErrSessionNotFound
	}

	if err := m.sessionRepo.Touch(ctx, session.ID, now.Add(m.idleTimeout), now); err != nil {
		return nil, err
	}

	return &appctx.Principal{
		UserID:      user.ID.String(),
		Username:    user.Username,
		Authorities: Authorities(user),
	}, nil
}

// Destroy removes the session behind the token. Missing sessions are
// not an error; logout is idempotent.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	err := m.sessionRepo.DeleteByTokenHash(ctx, HashToken(token))
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil
	}
	return err
}

// IssueRememberToken creates a persistent remember-me token for the
// user, replacing any previous one.
func (m *SessionManager) IssueRememberToken(ctx context.Context, userID uuid.UUID, username string) (string, time.Time, error) {
	if m.remember == nil {
		return "", time.Time{}, ErrInvalidRemember
	}

	token, expiresAt, err := m.remember.Generate(userID.String(), username)
	if err != nil {
		return "", time.Time{}, err
	}

	if err := m.sessionRepo.DeleteRememberTokensByUserID(ctx, userID); err != nil {
		return "", time.Time{}, err
	}

	record := &repository.RememberToken{
		UserID:    userID,
		TokenHash: HashToken(token),
		ExpiresAt: expiresAt.UTC(),
	}
	if err := m.sessionRepo.CreateRememberToken(ctx, record); err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// RedeemRememberToken re-establishes an authenticated session from a
// remember-me token without re-entering credentials. The token must
// verify and its server-side record must still exist and be current.
func (m *SessionManager) RedeemRememberToken(ctx context.Context, token, ipAddress, userAgent string) (*appctx.Principal, string, error) {
	if m.remember == nil {
		return nil, "", ErrInvalidRemember
	}

	claims, err := m.remember.Validate(token)
	if err != nil {
		return nil, "", ErrInvalidRemember
	}

	record, err := m.sessionRepo.GetRememberTokenByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrRememberTokenNotFound) {
			return nil, "", ErrInvalidRemember
		}
		return nil, "", err
	}

	now := m.clock().UTC()
	if now.After(record.ExpiresAt) {
		_ = m.sessionRepo.DeleteRememberTokensByUserID(ctx, record.UserID)
		return nil, "", ErrInvalidRemember
	}

	user, err := m.userRepo.GetByID(ctx, record.UserID)
	if err != nil || !user.Enabled || !user.AccountNonLocked {
		return nil, "", ErrInvalidRemember
	}

	sessionToken, err := m.IssueSession(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, "", err
	}

	m.logger.Info("session re-established from remember-me token", "username", claims.Username)

	return &appctx.Principal{
		UserID:      user.ID.String(),
		Username:    user.Username,
		Authorities: Authorities(user),
	}, sessionToken, nil
}

// ForgetUser removes all remember-me tokens for the user. Called on
// logout so a stolen persistent token dies with the session.
func (m *SessionManager) ForgetUser(ctx context.Context, userID uuid.UUID) error {
	return m.sessionRepo.DeleteRememberTokensByUserID(ctx, userID)
}
