package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var staticFS embed.FS

// RegisterRoutes registers the portal's page, form, and API routes with
// the Chi router. Authorization is not applied here; the session gate
// wrapping the router enforces the access rules by path. The login
// limiter wraps only the credential-submission endpoint.
func RegisterRoutes(
	r chi.Router,
	pages *PageHandler,
	authHandler *AuthHandler,
	api *APIHandler,
	admin *AdminHandler,
	loginLimiter func(http.Handler) http.Handler,
) {
	// Public pages
	r.Get("/", pages.Home)
	r.Get("/home", pages.Home)
	r.Get("/login", pages.Login)
	r.Get("/register", pages.RegisterForm)
	r.Get("/access-denied", pages.AccessDenied)

	// Authentication endpoints
	r.With(loginLimiter).Post("/perform-login", authHandler.PerformLogin)
	r.Post("/logout", authHandler.Logout)
	r.Post("/register", authHandler.Register)

	// Role-scoped pages
	r.Get("/admin/dashboard", pages.AdminDashboard)
	r.Get("/manager/dashboard", pages.ManagerDashboard)
	r.Get("/user/dashboard", pages.UserDashboard)
	r.Get("/profile", pages.Profile)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/public/info", api.PublicInfo)
		r.Get("/user/data", api.UserData)
		r.Get("/manager/data", api.ManagerData)
		r.Get("/admin/data", api.AdminData)

		// Account administration
		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/inactive", admin.InactiveUsers)
			r.Post("/{username}/unlock", admin.UnlockUser)
			r.Post("/{username}/lock", admin.LockUser)
			r.Post("/{username}/enable", admin.EnableUser)
			r.Post("/{username}/disable", admin.DisableUser)
			r.Post("/{username}/password", admin.UpdatePassword)
			r.Post("/{username}/roles/{role}", admin.AddRole)
			r.Delete("/{username}/roles/{role}", admin.RemoveRole)
		})
	})

	// Embedded static assets
	staticRoot, _ := fs.Sub(staticFS, "static")
	fileServer := http.FileServer(http.FS(staticRoot))
	r.Handle("/css/*", fileServer)
	r.Handle("/js/*", fileServer)
	r.Handle("/images/*", fileServer)
}
