package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// Minimal in-memory repositories for exercising the seeder.

type seedUserRepo struct {
	users map[string]*repository.User
}

func (m *seedUserRepo) Create(ctx context.Context, user *repository.User) error {
	if _, ok := m.users[user.Username]; ok {
		return repository.ErrUsernameAlreadyExists
	}
	user.ID = uuid.New()
	m.users[user.Username] = user
	return nil
}

func (m *seedUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *seedUserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *seedUserRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return nil, repository.ErrUserNotFound
}

func (m *seedUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *seedUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (m *seedUserRepo) RecordLoginFailure(ctx context.Context, username string, maxAttempts int) (int, error) {
	return 0, nil
}

func (m *seedUserRepo) RecordLoginSuccess(ctx context.Context, username string, at time.Time) error {
	return nil
}

func (m *seedUserRepo) SetLocked(ctx context.Context, username string, locked bool) error {
	return nil
}

func (m *seedUserRepo) SetEnabled(ctx context.Context, username string, enabled bool) error {
	return nil
}

func (m *seedUserRepo) ResetFailedAttempts(ctx context.Context, username string) error { return nil }

func (m *seedUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	return nil
}

func (m *seedUserRepo) AddRole(ctx context.Context, userID, roleID uuid.UUID) error    { return nil }
func (m *seedUserRepo) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error { return nil }

func (m *seedUserRepo) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*repository.User, error) {
	return nil, nil
}

type seedRoleRepo struct {
	roles      map[string]*repository.Role
	privileges map[string]*repository.Privilege
	assigned   map[uuid.UUID]map[uuid.UUID]bool
	creates    int
}

func (m *seedRoleRepo) GetByName(ctx context.Context, name string) (*repository.Role, error) {
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	return nil, repository.ErrRoleNotFound
}

func (m *seedRoleRepo) CreateRole(ctx context.Context, role *repository.Role) error {
	role.ID = uuid.New()
	m.roles[role.Name] = role
	m.creates++
	return nil
}

func (m *seedRoleRepo) GetPrivilegeByName(ctx context.Context, name string) (*repository.Privilege, error) {
	if p, ok := m.privileges[name]; ok {
		return p, nil
	}
	return nil, repository.ErrPrivilegeNotFound
}

func (m *seedRoleRepo) CreatePrivilege(ctx context.Context, privilege *repository.Privilege) error {
	privilege.ID = uuid.New()
	m.privileges[privilege.Name] = privilege
	m.creates++
	return nil
}

func (m *seedRoleRepo) AssignPrivilege(ctx context.Context, roleID, privilegeID uuid.UUID) error {
	if m.assigned[roleID] == nil {
		m.assigned[roleID] = make(map[uuid.UUID]bool)
	}
	m.assigned[roleID][privilegeID] = true
	return nil
}

func newSeedFixture() (*Seeder, *seedUserRepo, *seedRoleRepo) {
	userRepo := &seedUserRepo{users: map[string]*repository.User{}}
	roleRepo := &seedRoleRepo{
		roles:      map[string]*repository.Role{},
		privileges: map[string]*repository.Privilege{},
		assigned:   map[uuid.UUID]map[uuid.UUID]bool{},
	}
	seeder := NewSeeder(userRepo, roleRepo, auth.NewPasswordHasher(4), nil)
	return seeder, userRepo, roleRepo
}

func TestSeed_CreatesBaselineData(t *testing.T) {
	seeder, userRepo, roleRepo := newSeedFixture()

	if err := seeder.Seed(context.Background()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for _, name := range []string{PrivilegeRead, PrivilegeWrite, PrivilegeDelete, PrivilegeAdmin} {
		if _, ok := roleRepo.privileges[name]; !ok {
			t.Errorf("privilege %s should be seeded", name)
		}
	}

	for role, wantPrivileges := range map[string]int{
		auth.RoleUser:    1,
		auth.RoleManager: 2,
		auth.RoleAdmin:   4,
	} {
		r, ok := roleRepo.roles[role]
		if !ok {
			t.Errorf("role %s should be seeded", role)
			continue
		}
		if got := len(roleRepo.assigned[r.ID]); got != wantPrivileges {
			t.Errorf("role %s should hold %d privileges, got %d", role, wantPrivileges, got)
		}
	}

	for username, role := range map[string]string{
		"admin":   auth.RoleAdmin,
		"manager": auth.RoleManager,
		"user":    auth.RoleUser,
	} {
		u, ok := userRepo.users[username]
		if !ok {
			t.Errorf("user %s should be seeded", username)
			continue
		}
		if !u.Enabled || !u.AccountNonLocked {
			t.Errorf("seeded user %s should be enabled and unlocked", username)
		}
		if len(u.Roles) != 1 || u.Roles[0].Name != role {
			t.Errorf("seeded user %s should hold role %s, got %v", username, role, u.Roles)
		}
		if u.PasswordHash == "" || u.PasswordHash == "Admin@123" {
			t.Errorf("seeded user %s password must be stored hashed", username)
		}
	}
}

func TestSeed_IsIdempotent(t *testing.T) {
	seeder, userRepo, roleRepo := newSeedFixture()

	if err := seeder.Seed(context.Background()); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	createsAfterFirst := roleRepo.creates
	adminHash := userRepo.users["admin"].PasswordHash

	if err := seeder.Seed(context.Background()); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	if roleRepo.creates != createsAfterFirst {
		t.Errorf("second seed must not create roles or privileges again (%d -> %d)", createsAfterFirst, roleRepo.creates)
	}
	if len(userRepo.users) != 3 {
		t.Errorf("expected 3 users after reseeding, got %d", len(userRepo.users))
	}
	if userRepo.users["admin"].PasswordHash != adminHash {
		t.Error("reseeding must not rewrite existing account passwords")
	}
}

func TestSeed_SeededCredentialsAuthenticate(t *testing.T) {
	seeder, userRepo, _ := newSeedFixture()
	if err := seeder.Seed(context.Background()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	hasher := auth.NewPasswordHasher(4)
	for username, password := range map[string]string{
		"admin":   "Admin@123",
		"manager": "Manager@123",
		"user":    "User@123",
	} {
		u := userRepo.users[username]
		if err := hasher.VerifyPassword(password, u.PasswordHash); err != nil {
			t.Errorf("seeded password for %s should verify: %v", username, err)
		}
	}
}
