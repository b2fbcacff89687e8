package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wahyudibo/secure-portal/internal/appctx"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// Authenticator verifies username/password credentials against the
// credential store and yields an authenticated principal with its
// resolved authority set, or a typed failure.
type Authenticator struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	lockout  *LockoutPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthenticator creates a new Authenticator instance
func NewAuthenticator(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	lockout *LockoutPolicy,
	logger *slog.Logger,
) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		userRepo: userRepo,
		hasher:   hasher,
		lockout:  lockout,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate checks the credentials for the given username. The
// username match is exact and case-sensitive.
//
// Failure order: unknown user, disabled account, locked account, then
// password mismatch. Only a password mismatch counts against the
// lockout policy; the earlier branches never increment the counter.
// On success the failed-attempt counter resets to zero and the login
// timestamp is persisted before the principal is returned.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*appctx.Principal, error) {
	user, err := a.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			a.logger.Warn("login attempt for non-existent user", "username", username)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.Enabled {
		a.logger.Warn("login attempt for disabled account", "username", username)
		return nil, ErrAccountDisabled
	}

	if !user.AccountNonLocked {
		a.logger.Warn("login attempt for locked account", "username", username)
		return nil, ErrAccountLocked
	}

	if err := a.hasher.VerifyPassword(password, user.PasswordHash); err != nil {
		if recErr := a.lockout.RecordFailure(ctx, username); recErr != nil {
			a.logger.Error("failed to record login failure", "username", username, "error", recErr)
		}
		a.logger.Warn("failed login attempt", "username", username)
		return nil, ErrBadCredentials
	}

	if err := a.userRepo.RecordLoginSuccess(ctx, username, a.now().UTC()); err != nil {
		return nil, err
	}

	a.logger.Info("user logged in successfully", "username", username)

	return &appctx.Principal{
		UserID:      user.ID.String(),
		Username:    user.Username,
		Authorities: Authorities(user),
	}, nil
}
