package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/wahyudibo/secure-portal/internal/appctx"
	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// PageHandler serves the HTML pages of the portal.
type PageHandler struct {
	renderer *Renderer
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewPageHandler creates a new PageHandler instance
func NewPageHandler(renderer *Renderer, userRepo repository.UserRepository, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{
		renderer: renderer,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Home handles GET / and GET /home
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	// Signed-in users land on their dashboard instead of the public page.
	if p, ok := appctx.ExtractPrincipal(r.Context()); ok {
		http.Redirect(w, r, auth.RedirectTarget(p.Authorities), http.StatusFound)
		return
	}
	data := newPageData(r, "Home")
	h.renderer.Render(w, http.StatusOK, "home", data)
}

// Login handles GET /login. Query parameters select the banner shown
// above the form: a failed login arrives as error=true&message=..., the
// gate redirects here with expired or error=unauthorized, and logout
// lands with logout=true.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	// An authenticated user has no business on the login page.
	if p, ok := appctx.ExtractPrincipal(r.Context()); ok {
		http.Redirect(w, r, auth.RedirectTarget(p.Authorities), http.StatusFound)
		return
	}

	data := newPageData(r, "Login")
	q := r.URL.Query()
	switch {
	case q.Get("error") == "true":
		data.Error = q.Get("message")
		if data.Error == "" {
			data.Error = "Invalid username or password"
		}
	case q.Get("error") == "unauthorized":
		data.Info = "Please log in to continue."
	case q.Has("expired"):
		data.Info = "Your session has expired. Please log in again."
	case q.Get("logout") == "true":
		data.Info = "You have been logged out."
	case q.Get("registered") == "true":
		data.Info = "Registration successful. Please log in."
	}

	h.renderer.Render(w, http.StatusOK, "login", data)
}

// RegisterForm handles GET /register
func (h *PageHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := appctx.ExtractPrincipal(r.Context()); ok {
		http.Redirect(w, r, auth.DefaultLandingURL, http.StatusFound)
		return
	}
	data := newPageData(r, "Register")
	h.renderer.Render(w, http.StatusOK, "register", data)
}

// AccessDenied handles GET /access-denied
func (h *PageHandler) AccessDenied(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, "Access Denied")
	data.Requested = r.URL.Query().Get("from")
	h.renderer.Render(w, http.StatusForbidden, "access_denied", data)
}

// AdminDashboard handles GET /admin/dashboard
func (h *PageHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, "Admin Dashboard")
	data.Links = []dashboardLink{
		{Label: "Admin area", URL: "/admin/dashboard"},
		{Label: "Manager area", URL: "/manager/dashboard"},
		{Label: "User area", URL: "/user/dashboard"},
		{Label: "Profile", URL: "/profile"},
	}
	h.renderer.Render(w, http.StatusOK, "dashboard", data)
}

// ManagerDashboard handles GET /manager/dashboard
func (h *PageHandler) ManagerDashboard(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, "Manager Dashboard")
	data.Links = []dashboardLink{
		{Label: "Manager area", URL: "/manager/dashboard"},
		{Label: "User area", URL: "/user/dashboard"},
		{Label: "Profile", URL: "/profile"},
	}
	h.renderer.Render(w, http.StatusOK, "dashboard", data)
}

// UserDashboard handles GET /user/dashboard
func (h *PageHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, "User Dashboard")
	data.Links = []dashboardLink{
		{Label: "User area", URL: "/user/dashboard"},
		{Label: "Profile", URL: "/profile"},
	}
	h.renderer.Render(w, http.StatusOK, "dashboard", data)
}

// Profile handles GET /profile
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	userID, err := uuid.Parse(principal.UserID)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		h.logger.Error("failed to load profile", "user_id", principal.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := newPageData(r, "Profile")
	data.Profile = &profileView{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if user.LastLoginAt != nil {
		data.Profile.LastLogin = user.LastLoginAt.UTC().Format("2006-01-02 15:04 MST")
	}
	h.renderer.Render(w, http.StatusOK, "profile", data)
}
