package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wahyudibo/secure-portal/internal/metrics"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// DefaultMaxFailedAttempts locks an account after this many consecutive
// credential failures.
const DefaultMaxFailedAttempts = 5

// LockoutPolicy tracks consecutive failed login attempts per account and
// locks the account when the configured threshold is reached. Locking is
// one-way: a locked account stays locked until an administrator unlocks
// it. There is no time-based auto-unlock.
type LockoutPolicy struct {
	userRepo    repository.UserRepository
	maxAttempts int
	logger      *slog.Logger
}

// NewLockoutPolicy creates a LockoutPolicy with the given threshold.
// Thresholds below 1 fall back to the default.
func NewLockoutPolicy(userRepo repository.UserRepository, maxAttempts int, logger *slog.Logger) *LockoutPolicy {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxFailedAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LockoutPolicy{
		userRepo:    userRepo,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// MaxAttempts returns the configured lockout threshold.
func (p *LockoutPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// RecordFailure counts one failed attempt against the account. The
// increment and the threshold check run as a single atomic update, so
// concurrent failures never lose a count. Callers must invoke this
// exactly once per failed attempt.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, username string) error {
	attempts, err := p.userRepo.RecordLoginFailure(ctx, username, p.maxAttempts)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if attempts == p.maxAttempts {
		metrics.AccountLockoutsTotal.Inc()
		p.logger.Warn("account locked after repeated failed logins",
			"username", username,
			"failed_attempts", attempts,
		)
	}

	return nil
}

// RecordSuccess resets the failed-attempt counter to zero. It does not
// unlock a locked account; unlocking is an administrative action.
func (p *LockoutPolicy) RecordSuccess(ctx context.Context, username string) error {
	err := p.userRepo.ResetFailedAttempts(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

// IsLocked reports whether the account is currently locked.
func (p *LockoutPolicy) IsLocked(ctx context.Context, username string) (bool, error) {
	user, err := p.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return !user.AccountNonLocked, nil
}

// Unlock clears the lock flag and resets the failed-attempt counter.
func (p *LockoutPolicy) Unlock(ctx context.Context, username string) error {
	if err := p.userRepo.SetLocked(ctx, username, false); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := p.userRepo.ResetFailedAttempts(ctx, username); err != nil {
		return err
	}

	p.logger.Info("account unlocked", "username", username)
	return nil
}
