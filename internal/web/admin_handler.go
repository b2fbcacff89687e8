package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wahyudibo/secure-portal/internal/auth"
)

// AdminHandler exposes account administration over JSON. The whole
// /api/admin subtree is admin-gated before these run.
type AdminHandler struct {
	admin  *auth.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(admin *auth.AdminService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{admin: admin, logger: logger}
}

// UnlockUser handles POST /api/admin/users/{username}/unlock. Unlocking
// is the only way a locked account becomes usable again.
func (h *AdminHandler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, "unlocked", h.admin.UnlockAccount)
}

// LockUser handles POST /api/admin/users/{username}/lock
func (h *AdminHandler) LockUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, "locked", h.admin.LockAccount)
}

// EnableUser handles POST /api/admin/users/{username}/enable
func (h *AdminHandler) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, "enabled", h.admin.EnableAccount)
}

// DisableUser handles POST /api/admin/users/{username}/disable
func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, "disabled", h.admin.DisableAccount)
}

// UpdatePassword handles POST /api/admin/users/{username}/password
func (h *AdminHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "A password field is required")
		return
	}

	if err := h.admin.UpdatePassword(r.Context(), username, body.Password); err != nil {
		h.writeAdminError(w, username, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"action":   "password_updated",
	})
}

// AddRole handles POST /api/admin/users/{username}/roles/{role}
func (h *AdminHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	role := chi.URLParam(r, "role")

	if err := h.admin.AddRoleToUser(r.Context(), username, role); err != nil {
		h.writeAdminError(w, username, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"role":     role,
		"action":   "role_added",
	})
}

// RemoveRole handles DELETE /api/admin/users/{username}/roles/{role}
func (h *AdminHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	role := chi.URLParam(r, "role")

	if err := h.admin.RemoveRoleFromUser(r.Context(), username, role); err != nil {
		h.writeAdminError(w, username, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"role":     role,
		"action":   "role_removed",
	})
}

// InactiveUsers handles GET /api/admin/users/inactive?days=N
func (h *AdminHandler) InactiveUsers(w http.ResponseWriter, r *http.Request) {
	days := 90
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "days must be a positive integer")
			return
		}
		days = n
	}

	users, err := h.admin.FindInactiveUsers(r.Context(), days)
	if err != nil {
		h.logger.Error("failed to list inactive users", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list inactive users")
		return
	}

	summaries := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, map[string]interface{}{
			"username":   u.Username,
			"email":      u.Email,
			"enabled":    u.Enabled,
			"last_login": formatLastLogin(u.LastLoginAt),
		})
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"days":  days,
		"users": summaries,
	})
}

func (h *AdminHandler) accountAction(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(ctx context.Context, username string) error,
) {
	username := chi.URLParam(r, "username")
	if err := fn(r.Context(), username); err != nil {
		h.writeAdminError(w, username, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"action":   action,
	})
}

func (h *AdminHandler) writeAdminError(w http.ResponseWriter, username string, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User does not exist")
	case errors.Is(err, auth.ErrRoleNotFound):
		writeError(w, http.StatusNotFound, "ROLE_NOT_FOUND", "Role does not exist")
	default:
		h.logger.Error("admin operation failed", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}

func formatLastLogin(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
