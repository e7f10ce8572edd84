// Package router assembles the FixLoop HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fixloop/fixloop-platform/internal/http/handlers"
	httpmiddleware "github.com/fixloop/fixloop-platform/internal/http/middleware"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/internal/moderation"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// Config holds the wired handlers and cross-cutting settings.
type Config struct {
	Logger *logging.Logger

	Appointments *handlers.AppointmentsHandler
	Reviews      *handlers.ReviewsHandler
	Technicians  *handlers.TechniciansHandler
	Moderation   *moderation.Handler

	AuthSecret         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New builds the chi router: a public browse group, an authenticated /api
// group, and a moderator-only dashboard group.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public browse surface.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Technicians != nil {
			public.Get("/api/technicians", cfg.Technicians.List)
			public.Get("/api/technicians/{techID}/schedule", cfg.Technicians.Schedule)
		}
		if cfg.Reviews != nil {
			public.Get("/api/technicians/{techID}/reviews", cfg.Reviews.TechnicianReviews)
		}
	})

	// Authenticated client/technician surface.
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.UserJWT(cfg.AuthSecret))

		if cfg.Appointments != nil {
			authed.Route("/api/appointments", func(r chi.Router) {
				r.Post("/", cfg.Appointments.Book)
				r.Get("/", cfg.Appointments.List)
				r.Get("/{id}", cfg.Appointments.Get)
				r.Post("/{id}/cancel", cfg.Appointments.Cancel)
				r.Post("/{id}/status", cfg.Appointments.UpdateStatus)
			})
		}
		if cfg.Reviews != nil {
			authed.Route("/api/reviews", func(r chi.Router) {
				r.Post("/", cfg.Reviews.Create)
				r.Put("/{id}", cfg.Reviews.Edit)
				r.Delete("/{id}", cfg.Reviews.Delete)
				r.Post("/{id}/reply", cfg.Reviews.Reply)
			})
		}
		if cfg.Technicians != nil {
			authed.With(httpmiddleware.RequireRole(identity.RoleTechnician)).
				Post("/api/schedule/block", cfg.Technicians.ToggleBlock)
		}
	})

	// Moderator dashboard.
	if cfg.Moderation != nil {
		r.Route("/moderator", func(mod chi.Router) {
			mod.Use(httpmiddleware.UserJWT(cfg.AuthSecret))
			mod.Use(httpmiddleware.RequireRole(identity.RoleModerator))
			cfg.Moderation.Routes(mod)
		})
	}

	return r
}
