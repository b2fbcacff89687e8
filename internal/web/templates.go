package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/wahyudibo/secure-portal/internal/appctx"
	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds the parsed page templates and writes them out.
type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl, logger: logger}, nil
}

// dashboardLink is a navigation entry rendered on dashboard pages.
type dashboardLink struct {
	Label string
	URL   string
}

// pageData carries everything the page templates can reference.
type pageData struct {
	Title        string
	Username     string
	Authorities  []string
	DashboardURL string
	CSRFToken    string
	Error        string
	Info         string
	Form         map[string]string
	FieldErrors  []auth.ValidationError
	Links        []dashboardLink
	Profile      *profileView
	// Requested carries the path that triggered an access denial.
	Requested string
}

// profileView is the read-only account summary shown on /profile.
type profileView struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	LastLogin string
}

// newPageData seeds the common fields from the request: the signed-in
// principal (if any) and the CSRF token minted by the middleware.
func newPageData(r *http.Request, title string) pageData {
	data := pageData{
		Title: title,
		Form:  map[string]string{},
	}
	if p, ok := appctx.ExtractPrincipal(r.Context()); ok {
		data.Username = p.Username
		data.Authorities = p.Authorities
		data.DashboardURL = auth.RedirectTarget(p.Authorities)
	}
	if cookie, err := r.Cookie(middleware.CSRFCookieName); err == nil {
		data.CSRFToken = cookie.Value
	}
	return data
}

// Render writes the named template. Render failures after headers are
// committed can only be logged.
func (rn *Renderer) Render(w http.ResponseWriter, statusCode int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := rn.templates.ExecuteTemplate(w, name, data); err != nil {
		rn.logger.Error("failed to render template", "template", name, "error", err)
	}
}
