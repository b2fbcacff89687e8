package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/bootstrap"
	"github.com/wahyudibo/secure-portal/internal/config"
	"github.com/wahyudibo/secure-portal/internal/health"
	"github.com/wahyudibo/secure-portal/internal/logger"
	"github.com/wahyudibo/secure-portal/internal/metrics"
	portalmw "github.com/wahyudibo/secure-portal/internal/middleware"
	"github.com/wahyudibo/secure-portal/internal/repository"
	"github.com/wahyudibo/secure-portal/internal/web"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg := config.Load()

	log := logger.New(logger.DefaultConfig())
	log = log.With("service", "secure-portal", "version", Version)

	if cfg.Session.RememberSecret == "" {
		log.Warn("REMEMBER_ME_SECRET is not set; remember-me logins are disabled")
	}

	// Setup database connection
	dbPool, err := setupDatabase(cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.DBName)

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool)
	roleRepo := repository.NewRoleRepository(dbPool)
	sessionRepo := repository.NewSessionRepository(dbPool)

	// Initialize services
	hasher := auth.NewPasswordHasher(cfg.Password.BcryptCost)
	lockout := auth.NewLockoutPolicy(userRepo, cfg.Lockout.MaxFailedAttempts, log)
	authenticator := auth.NewAuthenticator(userRepo, hasher, lockout, log)
	registration := auth.NewRegistrationService(userRepo, roleRepo, hasher, log)
	adminService := auth.NewAdminService(userRepo, roleRepo, hasher, lockout, log)

	var remember *auth.RememberTokenService
	if cfg.Session.RememberSecret != "" {
		remember = auth.NewRememberTokenService(auth.RememberTokenConfig{
			Secret:   cfg.Session.RememberSecret,
			Validity: cfg.Session.RememberValidity,
			Issuer:   cfg.Session.Issuer,
		})
	}

	sessions := auth.NewSessionManager(sessionRepo, userRepo, remember, cfg.Session.IdleTimeout, log)

	// Seed baseline roles, privileges, and development accounts.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	seeder := bootstrap.NewSeeder(userRepo, roleRepo, hasher, log)
	if err := seeder.Seed(seedCtx); err != nil {
		cancelSeed()
		log.Error("database seeding failed", "error", err)
		os.Exit(1)
	}
	cancelSeed()

	// Initialize handlers
	renderer, err := web.NewRenderer(log)
	if err != nil {
		log.Error("failed to parse page templates", "error", err)
		os.Exit(1)
	}
	pages := web.NewPageHandler(renderer, userRepo, log)
	authHandler := web.NewAuthHandler(authenticator, sessions, registration, renderer, cfg.Session.CookieName, log)
	apiHandler := web.NewAPIHandler(log)
	adminHandler := web.NewAdminHandler(adminService, log)
	healthHandler := health.NewHandler(health.Config{DBPool: dbPool, Version: Version})

	// Initialize middleware
	gate := portalmw.NewSessionGate(sessions, portalmw.DefaultRules(), cfg.Session.CookieName, log)
	csrf := portalmw.NewCSRF("/api/public/")
	loginLimiter := portalmw.NewRateLimiter(10, time.Minute)
	logging := portalmw.NewLoggingMiddleware(log)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-XSRF-TOKEN"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(logging.Handler)
	r.Use(metrics.Middleware)
	r.Use(portalmw.SecurityHeaders)
	r.Use(csrf.Handler)
	r.Use(gate.Handler)

	// Operational endpoints
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Portal routes; login form submissions are rate limited per IP.
	web.RegisterRoutes(r, pages, authHandler, apiHandler, adminHandler, loginLimiter.Handler)

	// Expired sessions and remember-me tokens accumulate; sweep them in
	// the background.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runSessionCleanup(cleanupCtx, sessionRepo, log)

	// Publish pool and session gauges.
	poolStats := metrics.NewPoolStatsCollector(dbPool, log)
	poolStats.Start(30 * time.Second)

	// Create server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)
	cancelCleanup()
	poolStats.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

// runSessionCleanup periodically removes expired sessions and
// remember-me tokens.
func runSessionCleanup(ctx context.Context, sessionRepo repository.SessionRepository, log *slog.Logger) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessionRepo.CleanupExpired(ctx)
			if err != nil {
				log.Error("session cleanup failed", "error", err)
				continue
			}
			tokens, err := sessionRepo.CleanupExpiredRememberTokens(ctx)
			if err != nil {
				log.Error("remember token cleanup failed", "error", err)
				continue
			}
			if removed > 0 || tokens > 0 {
				log.Info("cleaned up expired credentials", "sessions", removed, "remember_tokens", tokens)
			}
		}
	}
}

// setupDatabase creates and configures the database connection pool
func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
