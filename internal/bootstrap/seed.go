package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// Privilege names seeded at startup.
const (
	PrivilegeRead   = "READ_PRIVILEGE"
	PrivilegeWrite  = "WRITE_PRIVILEGE"
	PrivilegeDelete = "DELETE_PRIVILEGE"
	PrivilegeAdmin  = "ADMIN_PRIVILEGE"
)

// seedUser describes one of the development accounts created by Seed.
type seedUser struct {
	username  string
	email     string
	password  string
	firstName string
	lastName  string
	role      string
}

// Seeder provisions the baseline roles, privileges, and development
// accounts. Every step checks before it writes, so running it against
// an already-seeded database changes nothing.
type Seeder struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	hasher   *auth.PasswordHasher
	logger   *slog.Logger
}

// NewSeeder creates a new Seeder instance
func NewSeeder(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	hasher *auth.PasswordHasher,
	logger *slog.Logger,
) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		userRepo: userRepo,
		roleRepo: roleRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

// Seed creates the privileges, the three roles with their privilege
// sets, and one development account per role.
func (s *Seeder) Seed(ctx context.Context) error {
	privileges := map[string]*repository.Privilege{}
	for _, def := range []struct {
		name        string
		description string
	}{
		{PrivilegeRead, "Read access to portal resources"},
		{PrivilegeWrite, "Create and update portal resources"},
		{PrivilegeDelete, "Delete portal resources"},
		{PrivilegeAdmin, "Administrative operations"},
	} {
		p, err := s.ensurePrivilege(ctx, def.name, def.description)
		if err != nil {
			return err
		}
		privileges[def.name] = p
	}

	for _, def := range []struct {
		name        string
		description string
		privileges  []string
	}{
		{auth.RoleUser, "Standard portal user", []string{PrivilegeRead}},
		{auth.RoleManager, "Manager with write access", []string{PrivilegeRead, PrivilegeWrite}},
		{auth.RoleAdmin, "Administrator with full access", []string{PrivilegeRead, PrivilegeWrite, PrivilegeDelete, PrivilegeAdmin}},
	} {
		role, err := s.ensureRole(ctx, def.name, def.description)
		if err != nil {
			return err
		}
		for _, privName := range def.privileges {
			if err := s.roleRepo.AssignPrivilege(ctx, role.ID, privileges[privName].ID); err != nil {
				return err
			}
		}
	}

	for _, u := range []seedUser{
		{"admin", "admin@example.com", "Admin@123", "Admin", "User", auth.RoleAdmin},
		{"manager", "manager@example.com", "Manager@123", "Manager", "User", auth.RoleManager},
		{"user", "user@example.com", "User@123", "Regular", "User", auth.RoleUser},
	} {
		if err := s.ensureUser(ctx, u); err != nil {
			return err
		}
	}

	s.logger.Info("database seed complete")
	return nil
}

// ensurePrivilege returns the named privilege, creating it if missing.
func (s *Seeder) ensurePrivilege(ctx context.Context, name, description string) (*repository.Privilege, error) {
	p, err := s.roleRepo.GetPrivilegeByName(ctx, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrPrivilegeNotFound) {
		return nil, err
	}

	p = &repository.Privilege{Name: name, Description: description}
	if err := s.roleRepo.CreatePrivilege(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("seeded privilege", "name", name)
	return p, nil
}

// ensureRole returns the named role, creating it if missing.
func (s *Seeder) ensureRole(ctx context.Context, name, description string) (*repository.Role, error) {
	role, err := s.roleRepo.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, err
	}

	role = &repository.Role{Name: name, Description: description}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("seeded role", "name", name)
	return role, nil
}

// ensureUser creates the development account if it does not exist.
// Existing accounts are left untouched, passwords included.
func (s *Seeder) ensureUser(ctx context.Context, u seedUser) error {
	exists, err := s.userRepo.UsernameExists(ctx, u.username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	role, err := s.roleRepo.GetByName(ctx, u.role)
	if err != nil {
		return err
	}

	passwordHash, err := s.hasher.HashPassword(u.password)
	if err != nil {
		return err
	}

	user := &repository.User{
		Username:              u.username,
		Email:                 u.email,
		PasswordHash:          passwordHash,
		FirstName:             u.firstName,
		LastName:              u.lastName,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Roles:                 []repository.Role{*role},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent seeder may have won the race; that is fine.
		if errors.Is(err, repository.ErrUsernameAlreadyExists) || errors.Is(err, repository.ErrEmailAlreadyExists) {
			return nil
		}
		return err
	}

	s.logger.Info("seeded user", "username", u.username, "role", u.role)
	return nil
}
