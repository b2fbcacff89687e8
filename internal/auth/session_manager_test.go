package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wahyudibo/secure-portal/internal/repository"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *mockSessionRepository, *mockUserRepository) {
	t.Helper()
	sessionRepo := newMockSessionRepository()
	userRepo := newMockUserRepository()
	remember := NewRememberTokenService(RememberTokenConfig{
		Secret:   "test-secret",
		Validity: 24 * time.Hour,
		Issuer:   "test",
	})
	m := NewSessionManager(sessionRepo, userRepo, remember, 30*time.Minute, nil)
	return m, sessionRepo, userRepo
}

func seedSessionUser(t *testing.T, userRepo *mockUserRepository, username string) *repository.User {
	t.Helper()
	return userRepo.addUser(&repository.User{
		Username:              username,
		Email:                 username + "@example.com",
		PasswordHash:          "irrelevant",
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Roles:                 []repository.Role{{Name: RoleUser}},
	})
}

func TestIssueSession_ValidateRoundTrip(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, err := m.IssueSession(ctx, user.ID, "192.0.2.1", "test-agent")
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty session token")
	}

	principal, err := m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("failed to validate session: %v", err)
	}
	if principal.Username != "alice" {
		t.Errorf("expected username alice, got %s", principal.Username)
	}
}

func TestIssueSession_EvictsPreviousSession(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	first, err := m.IssueSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("failed to issue first session: %v", err)
	}

	// Second login from elsewhere wins; the first session dies.
	second, err := m.IssueSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("failed to issue second session: %v", err)
	}

	if _, err := m.Validate(ctx, first); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("first session should be evicted, got %v", err)
	}
	if _, err := m.Validate(ctx, second); err != nil {
		t.Errorf("second session should be valid, got %v", err)
	}
}

func TestValidate_ExpiredSessionIsDeleted(t *testing.T) {
	m, sessionRepo, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, err := m.IssueSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}

	// Jump past the idle window.
	m.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	if _, err := m.Validate(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if len(sessionRepo.sessions) != 0 {
		t.Error("expired session should be deleted lazily on validation")
	}

	// Expired is a one-shot signal; afterwards the session is simply gone.
	if _, err := m.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after lazy delete, got %v", err)
	}
}

func TestValidate_ActivitySlidesIdleWindow(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }

	token, err := m.IssueSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}

	// Activity at +20m extends the window past the original deadline.
	m.now = func() time.Time { return base.Add(20 * time.Minute) }
	if _, err := m.Validate(ctx, token); err != nil {
		t.Fatalf("session should still be valid at +20m: %v", err)
	}

	// +45m is past the original 30m deadline but within the slid one.
	m.now = func() time.Time { return base.Add(45 * time.Minute) }
	if _, err := m.Validate(ctx, token); err != nil {
		t.Fatalf("idle window should have slid forward: %v", err)
	}

	// +80m exceeds the last extension.
	m.now = func() time.Time { return base.Add(80 * time.Minute) }
	if _, err := m.Validate(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestValidate_DisabledUserSessionDies(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, err := m.IssueSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}

	user.Enabled = false

	if _, err := m.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("disabled user's session should be invalid, got %v", err)
	}
}

func TestDestroy_IsIdempotent(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, err := m.IssueSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}

	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy failed: %v", err)
	}
	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("second destroy should be a no-op, got %v", err)
	}
	if err := m.Destroy(ctx, "never-existed"); err != nil {
		t.Fatalf("destroying an unknown token should be a no-op, got %v", err)
	}
}

func TestRememberToken_RedeemIssuesNewSession(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, expiresAt, err := m.IssueRememberToken(ctx, user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed to issue remember token: %v", err)
	}
	if time.Until(expiresAt) <= 23*time.Hour {
		t.Errorf("remember token should be valid for about 24h, expires %v", expiresAt)
	}

	principal, sessionToken, err := m.RedeemRememberToken(ctx, token, "", "")
	if err != nil {
		t.Fatalf("failed to redeem remember token: %v", err)
	}
	if principal.Username != "alice" {
		t.Errorf("expected username alice, got %s", principal.Username)
	}

	if _, err := m.Validate(ctx, sessionToken); err != nil {
		t.Errorf("redeemed session should validate: %v", err)
	}
}

func TestRememberToken_TamperedTokenRejected(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, _, err := m.IssueRememberToken(ctx, user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed to issue remember token: %v", err)
	}

	if _, _, err := m.RedeemRememberToken(ctx, token+"x", "", ""); !errors.Is(err, ErrInvalidRemember) {
		t.Fatalf("tampered token should be rejected, got %v", err)
	}
}

func TestRememberToken_ForgottenTokenRejected(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	token, _, err := m.IssueRememberToken(ctx, user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed to issue remember token: %v", err)
	}

	// Logout revokes the server-side record; the signed token alone is
	// no longer enough.
	if err := m.ForgetUser(ctx, user.ID); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if _, _, err := m.RedeemRememberToken(ctx, token, "", ""); !errors.Is(err, ErrInvalidRemember) {
		t.Fatalf("revoked token should be rejected, got %v", err)
	}
}

func TestRememberToken_ReissueReplacesOld(t *testing.T) {
	m, _, userRepo := newTestSessionManager(t)
	user := seedSessionUser(t, userRepo, "alice")
	ctx := context.Background()

	first, _, err := m.IssueRememberToken(ctx, user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed to issue first remember token: %v", err)
	}
	second, _, err := m.IssueRememberToken(ctx, user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed to issue second remember token: %v", err)
	}

	if _, _, err := m.RedeemRememberToken(ctx, first, "", ""); !errors.Is(err, ErrInvalidRemember) {
		t.Errorf("old remember token should be revoked, got %v", err)
	}
	if _, _, err := m.RedeemRememberToken(ctx, second, "", ""); err != nil {
		t.Errorf("latest remember token should redeem, got %v", err)
	}
}
