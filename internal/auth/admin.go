package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wahyudibo/secure-portal/internal/repository"
)

// AdminService exposes the administrative account operations: lock and
// unlock, enable and disable, password updates and role assignment.
// None of these run on the login path.
type AdminService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	hasher   *PasswordHasher
	lockout  *LockoutPolicy
	logger   *slog.Logger
}

// NewAdminService creates a new AdminService instance
func NewAdminService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	hasher *PasswordHasher,
	lockout *LockoutPolicy,
	logger *slog.Logger,
) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		hasher:   hasher,
		lockout:  lockout,
		logger:   logger,
	}
}

// UnlockAccount clears the lock flag and failed-attempt counter.
func (s *AdminService) UnlockAccount(ctx context.Context, username string) error {
	return s.lockout.Unlock(ctx, username)
}

// LockAccount locks the account without touching the counter.
func (s *AdminService) LockAccount(ctx context.Context, username string) error {
	if err := s.mapUserErr(s.userRepo.SetLocked(ctx, username, true)); err != nil {
		return err
	}
	s.logger.Info("account locked", "username", username)
	return nil
}

// EnableAccount sets the enabled flag.
func (s *AdminService) EnableAccount(ctx context.Context, username string) error {
	if err := s.mapUserErr(s.userRepo.SetEnabled(ctx, username, true)); err != nil {
		return err
	}
	s.logger.Info("account enabled", "username", username)
	return nil
}

// DisableAccount clears the enabled flag.
func (s *AdminService) DisableAccount(ctx context.Context, username string) error {
	if err := s.mapUserErr(s.userRepo.SetEnabled(ctx, username, false)); err != nil {
		return err
	}
	s.logger.Info("account disabled", "username", username)
	return nil
}

// UpdatePassword re-hashes and stores a new password. The credentials
// are marked current again as part of the update.
func (s *AdminService) UpdatePassword(ctx context.Context, username, newPassword string) error {
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.mapUserErr(s.userRepo.UpdatePassword(ctx, username, hash)); err != nil {
		return err
	}
	s.logger.Info("password updated", "username", username)
	return nil
}

// AddRoleToUser assigns the named role to the user.
func (s *AdminService) AddRoleToUser(ctx context.Context, username, roleName string) error {
	user, role, err := s.lookupUserAndRole(ctx, username, roleName)
	if err != nil {
		return err
	}
	if err := s.userRepo.AddRole(ctx, user.ID, role.ID); err != nil {
		return err
	}
	s.logger.Info("role added to user", "username", username, "role", roleName)
	return nil
}

// RemoveRoleFromUser removes the named role from the user.
func (s *AdminService) RemoveRoleFromUser(ctx context.Context, username, roleName string) error {
	user, role, err := s.lookupUserAndRole(ctx, username, roleName)
	if err != nil {
		return err
	}
	if err := s.userRepo.RemoveRole(ctx, user.ID, role.ID); err != nil {
		return err
	}
	s.logger.Info("role removed from user", "username", username, "role", roleName)
	return nil
}

// FindInactiveUsers lists users who have not logged in for the given
// number of days. Pull-based reporting; nothing schedules this.
func (s *AdminService) FindInactiveUsers(ctx context.Context, days int) ([]*repository.User, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return s.userRepo.FindInactiveSince(ctx, cutoff)
}

func (s *AdminService) lookupUserAndRole(ctx context.Context, username, roleName string) (*repository.User, *repository.Role, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, nil, ErrRoleNotFound
		}
		return nil, nil, err
	}

	return user, role, nil
}

func (s *AdminService) mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
