package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/wahyudibo/secure-portal/internal/appctx"
)

// APIResponse represents the standard API response format
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents the error detail in API response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIHandler serves the JSON endpoints. Role enforcement happens in the
// gate before these run; the handlers only shape the payloads.
type APIHandler struct {
	logger *slog.Logger
}

// NewAPIHandler creates a new APIHandler instance
func NewAPIHandler(logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{logger: logger}
}

// PublicInfo handles GET /api/public/info
func (h *APIHandler) PublicInfo(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "This endpoint is available without authentication",
		"service": "secure-portal",
	})
}

// UserData handles GET /api/user/data
func (h *APIHandler) UserData(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message":     "User-level data",
		"username":    principal.Username,
		"authorities": principal.Authorities,
	})
}

// ManagerData handles GET /api/manager/data
func (h *APIHandler) ManagerData(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message":     "Manager-level data",
		"username":    principal.Username,
		"authorities": principal.Authorities,
	})
}

// AdminData handles GET /api/admin/data
func (h *APIHandler) AdminData(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message":     "Admin-level data",
		"username":    principal.Username,
		"authorities": principal.Authorities,
	})
}

// writeSuccess writes a successful JSON response
func writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}

// writeError writes an error JSON response
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}
