package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	"github.com/HarryOhm33/We-Hack/internal/service"
	"github.com/HarryOhm33/We-Hack/pkg/health"
	"github.com/HarryOhm33/We-Hack/pkg/middleware"
)

// jobListCacheTTL is how long shared caches may hold the public job listing.
const jobListCacheTTL = 30 * time.Second

// publicCache marks GET responses as cacheable for the given window.
func publicCache(ttl time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RouterConfig bundles the collaborators the router needs.
type RouterConfig struct {
	AuthService   *service.AuthService
	JobService    *service.JobService
	HealthHandler *health.Handler
	Logger        *slog.Logger
	Cookies       CookieConfig
	CORS          middleware.CORSConfig
}

// NewRouter creates a chi router with all backend routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing("backend"))
	r.Use(middleware.PrometheusMetrics("backend"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(cfg.AuthService, cfg.Cookies, cfg.Logger)
	jobHandler := NewJobHandler(cfg.JobService, cfg.Logger)

	// Auth endpoints (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.Signup)
		r.Post("/verify-otp", authHandler.VerifyOTP)
		r.Post("/resend-otp", authHandler.ResendOTP)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticated(cfg.AuthService))

			r.Post("/logout", authHandler.Logout)
			r.Get("/verify", authHandler.Verify)
		})
	})

	// Job endpoints: browsing is public, management is role-gated.
	r.Route("/api/jobs", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(publicCache(jobListCacheTTL))

			r.Get("/", jobHandler.List)
			r.Get("/{id}", jobHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(Authenticated(cfg.AuthService))

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleRecruiter))

				r.Post("/", jobHandler.Create)
				r.Put("/{id}", jobHandler.Update)
				r.Delete("/{id}", jobHandler.Delete)
				r.Get("/{id}/applications", jobHandler.ListApplications)
				r.Put("/{id}/applications/{applicationID}", jobHandler.UpdateApplicationStatus)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleCandidate))

				r.Post("/{id}/apply", jobHandler.Apply)
			})
		})
	})

	// A candidate's own applications
	r.With(Authenticated(cfg.AuthService), RequireRole(domain.RoleCandidate)).
		Get("/api/applications", jobHandler.MyApplications)

	return r
}
