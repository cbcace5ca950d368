package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/handlers"
	"github.com/BradenHooton/cis-membership/internal/middleware"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const healthCheckTimeout = 2 * time.Second

// Config holds the HTTP-layer settings
type Config struct {
	Env                string
	AllowedOrigins     []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	IPConfig           *pkghttp.IPConfig
}

// Handlers groups the request handlers mounted by NewRouter
type Handlers struct {
	Auth          *handlers.AuthHandler
	PasswordReset *handlers.PasswordResetHandler
	Membership    *handlers.MembershipHandler
	Newsletter    *handlers.NewsletterHandler
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// NewRouter builds the application router with its middleware stack.
// health may be nil when no external store is in use.
func NewRouter(cfg Config, h Handlers, tokens auth.TokenValidator, health HealthChecker, logger *slog.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger, cfg.IPConfig))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteJSON(w, http.StatusOK, handlers.MessageResponse{
			Success: true,
			Message: "Welcome to the Cyber Intelligent System API",
		})
	})
	router.Get("/health", healthHandler(health))

	RegisterRoutes(router, cfg, h, tokens)

	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, cfg Config, h Handlers, tokens auth.TokenValidator) {
	// credential endpoints are throttled per client IP
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			IPConfig:          cfg.IPConfig,
		}))

		r.Post("/signin", h.Auth.Signin)
		r.Post("/login", h.Auth.Login)
		r.Post("/forgot-password", h.PasswordReset.ForgotPassword)
		r.Post("/verify-otp", h.PasswordReset.VerifyOTP)
		r.Post("/reset-password", h.PasswordReset.ResetPassword)
	})

	router.Get("/verify-email", h.Auth.VerifyEmail)

	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokens))
		r.Get("/me", h.Auth.Me)
	})

	router.Route("/api", func(r chi.Router) {
		r.Post("/membership", h.Membership.Submit)
		r.Post("/membership/payment", h.Membership.UpdatePayment)
		r.Get("/membership/check/{email}", h.Membership.Check)
		r.Get("/membership/{id}", h.Membership.Card)

		r.Post("/subscribe", h.Newsletter.Subscribe)
		r.Post("/unsubscribe", h.Newsletter.Unsubscribe)
	})
}

func healthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			pkghttp.WriteJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "memory"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "down"})
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "up"})
	}
}
