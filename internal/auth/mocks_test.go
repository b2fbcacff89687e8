package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wahyudibo/secure-portal/internal/repository"
)

// Mock implementations for testing

// mockUserRepository implements repository.UserRepository for testing
type mockUserRepository struct {
	users      map[string]*repository.User // keyed by username
	roleGrants map[uuid.UUID][]uuid.UUID   // userID -> granted role IDs
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:      make(map[string]*repository.User),
		roleGrants: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockUserRepository) addUser(user *repository.User) *repository.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = time.Now().UTC()
	m.users[user.Username] = user
	return user
}

func (m *mockUserRepository) Create(ctx context.Context, user *repository.User) error {
	if _, ok := m.users[user.Username]; ok {
		return repository.ErrUsernameAlreadyExists
	}
	email := strings.ToLower(user.Email)
	for _, u := range m.users {
		if strings.ToLower(u.Email) == email {
			return repository.ErrEmailAlreadyExists
		}
	}
	m.addUser(user)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	// Exact, case-sensitive match.
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	email = strings.ToLower(email)
	for _, user := range m.users {
		if strings.ToLower(user.Email) == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(email)
	for _, user := range m.users {
		if strings.ToLower(user.Email) == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) RecordLoginFailure(ctx context.Context, username string, maxAttempts int) (int, error) {
	user, ok := m.users[username]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= maxAttempts {
		user.AccountNonLocked = false
	}
	return user.FailedLoginAttempts, nil
}

func (m *mockUserRepository) RecordLoginSuccess(ctx context.Context, username string, at time.Time) error {
	user, ok := m.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &at
	return nil
}

func (m *mockUserRepository) SetLocked(ctx context.Context, username string, locked bool) error {
	user, ok := m.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.AccountNonLocked = !locked
	return nil
}

func (m *mockUserRepository) SetEnabled(ctx context.Context, username string, enabled bool) error {
	user, ok := m.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Enabled = enabled
	return nil
}

func (m *mockUserRepository) ResetFailedAttempts(ctx context.Context, username string) error {
	user, ok := m.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.FailedLoginAttempts = 0
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, username string, passwordHash string) error {
	user, ok := m.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.CredentialsNonExpired = true
	return nil
}

func (m *mockUserRepository) AddRole(ctx context.Context, userID, roleID uuid.UUID) error {
	m.roleGrants[userID] = append(m.roleGrants[userID], roleID)
	return nil
}

func (m *mockUserRepository) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	grants := m.roleGrants[userID]
	for i, id := range grants {
		if id == roleID {
			m.roleGrants[userID] = append(grants[:i], grants[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockUserRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*repository.User, error) {
	var inactive []*repository.User
	for _, user := range m.users {
		if user.LastLoginAt != nil && user.LastLoginAt.Before(cutoff) {
			inactive = append(inactive, user)
		}
	}
	return inactive, nil
}

// mockRoleRepository implements repository.RoleRepository for testing
type mockRoleRepository struct {
	roles      map[string]*repository.Role
	privileges map[string]*repository.Privilege
	assigned   map[uuid.UUID][]uuid.UUID // role id -> privilege ids
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{
		roles:      make(map[string]*repository.Role),
		privileges: make(map[string]*repository.Privilege),
		assigned:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockRoleRepository) addRole(name string) *repository.Role {
	role := &repository.Role{ID: uuid.New(), Name: name}
	m.roles[name] = role
	return role
}

func (m *mockRoleRepository) GetByName(ctx context.Context, name string) (*repository.Role, error) {
	if role, ok := m.roles[name]; ok {
		return role, nil
	}
	return nil, repository.ErrRoleNotFound
}

func (m *mockRoleRepository) CreateRole(ctx context.Context, role *repository.Role) error {
	role.ID = uuid.New()
	m.roles[role.Name] = role
	return nil
}

func (m *mockRoleRepository) GetPrivilegeByName(ctx context.Context, name string) (*repository.Privilege, error) {
	if p, ok := m.privileges[name]; ok {
		return p, nil
	}
	return nil, repository.ErrPrivilegeNotFound
}

func (m *mockRoleRepository) CreatePrivilege(ctx context.Context, privilege *repository.Privilege) error {
	privilege.ID = uuid.New()
	m.privileges[privilege.Name] = privilege
	return nil
}

func (m *mockRoleRepository) AssignPrivilege(ctx context.Context, roleID, privilegeID uuid.UUID) error {
	for _, id := range m.assigned[roleID] {
		if id == privilegeID {
			return nil
		}
	}
	m.assigned[roleID] = append(m.assigned[roleID], privilegeID)
	return nil
}

// mockSessionRepository implements repository.SessionRepository for testing
type mockSessionRepository struct {
	sessions       map[string]*repository.Session       // keyed by token hash
	rememberTokens map[string]*repository.RememberToken // keyed by token hash
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{
		sessions:       make(map[string]*repository.Session),
		rememberTokens: make(map[string]*repository.RememberToken),
	}
}

func (m *mockSessionRepository) Create(ctx context.Context, session *repository.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now().UTC()
	m.sessions[session.TokenHash] = session
	return nil
}

func (m *mockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*repository.Session, error) {
	if session, ok := m.sessions[tokenHash]; ok {
		return session, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (m *mockSessionRepository) Touch(ctx context.Context, id uuid.UUID, expiresAt, seenAt time.Time) error {
	for _, session := range m.sessions {
		if session.ID == id {
			session.ExpiresAt = expiresAt
			session.LastSeenAt = seenAt
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

func (m *mockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for hash, session := range m.sessions {
		if session.ID == id {
			delete(m.sessions, hash)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

func (m *mockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if _, ok := m.sessions[tokenHash]; ok {
		delete(m.sessions, tokenHash)
		return nil
	}
	return repository.ErrSessionNotFound
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var removed int64
	for hash, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *mockSessionRepository) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	var removed int64
	for hash, session := range m.sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *mockSessionRepository) CreateRememberToken(ctx context.Context, token *repository.RememberToken) error {
	token.ID = uuid.New()
	token.CreatedAt = time.Now().UTC()
	m.rememberTokens[token.TokenHash] = token
	return nil
}

func (m *mockSessionRepository) GetRememberTokenByHash(ctx context.Context, tokenHash string) (*repository.RememberToken, error) {
	if token, ok := m.rememberTokens[tokenHash]; ok {
		return token, nil
	}
	return nil, repository.ErrRememberTokenNotFound
}

func (m *mockSessionRepository) DeleteRememberTokensByUserID(ctx context.Context, userID uuid.UUID) error {
	for hash, token := range m.rememberTokens {
		if token.UserID == userID {
			delete(m.rememberTokens, hash)
		}
	}
	return nil
}

func (m *mockSessionRepository) CleanupExpiredRememberTokens(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	var removed int64
	for hash, token := range m.rememberTokens {
		if token.ExpiresAt.Before(now) {
			delete(m.rememberTokens, hash)
			removed++
		}
	}
	return removed, nil
}
