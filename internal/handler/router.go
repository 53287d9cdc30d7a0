package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/repository"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Auth     *AuthHandler
	Keys     *KeysHandler
	Cards    *CardsHandler
	Designs  *DesignsHandler
	Webhook  *WebhookHandler
	KeySvc   *service.KeyService
	Database repository.DatabaseHealth
	Metrics  *telemetry.Metrics

	AllowedOrigins    []string
	RateLimitEnabled  bool
	RequestsPerMinute int

	Logger zerolog.Logger
}

// NewRouter wires the full HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Instrument(cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", AccessKeyHeader, WebhookTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(cfg.Database))

	r.Route("/api", func(r chi.Router) {
		// Unauthenticated: login, validation, quota and the webhook.
		// Rate limited so password guessing stays expensive.
		r.Group(func(r chi.Router) {
			if cfg.RateLimitEnabled {
				r.Use(httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute))
			}
			r.Post("/auth/validate", cfg.Auth.Validate)
			r.Post("/auth/quota", cfg.Auth.Quota)
			r.Post("/auth/session", cfg.Auth.Login)
			r.Post("/webhook/kuenha", cfg.Webhook.HandlePayment)
		})

		r.Get("/auth/session", cfg.Auth.Session)
		r.Delete("/auth/session", cfg.Auth.Logout)

		// Workspace routes need a valid access key.
		r.Group(func(r chi.Router) {
			r.Use(RequireAccess(cfg.KeySvc))

			r.Get("/cards", cfg.Cards.List)
			r.Post("/cards", cfg.Cards.Create)
			r.Get("/cards/{id}", cfg.Cards.Get)
			r.Patch("/cards/{id}", cfg.Cards.Update)
			r.Delete("/cards/{id}", cfg.Cards.Delete)

			r.Post("/designs/generate", cfg.Designs.Generate)
			r.Get("/designs", cfg.Designs.List)
			r.Get("/designs/{id}", cfg.Designs.Get)
			r.Delete("/designs/{id}", cfg.Designs.Delete)

			r.Post("/ideas/expand", cfg.Designs.ExpandIdea)
			r.Post("/images/remove-background", cfg.Designs.RemoveBackground)
			r.Get("/images/*", cfg.Designs.ServeImage)
		})

		// Admin key management.
		r.Group(func(r chi.Router) {
			r.Use(RequireAccess(cfg.KeySvc))
			r.Use(RequireAdmin())

			r.Get("/admin/keys", cfg.Keys.List)
			r.Post("/admin/keys", cfg.Keys.Create)
			r.Patch("/admin/keys/{id}/status", cfg.Keys.SetStatus)
			r.Post("/admin/keys/{id}/reset", cfg.Keys.ResetUsage)
			r.Delete("/admin/keys/{id}", cfg.Keys.Delete)
		})
	})

	return r
}

// healthHandler reports service and database health.
func healthHandler(db repository.DatabaseHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  "database unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
