// Package server assembles the HTTP surface: routes, middleware order and
// role gates.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/josh-kwaku/float-ledger/internal/auth"
	"github.com/josh-kwaku/float-ledger/internal/handler"
	"github.com/josh-kwaku/float-ledger/internal/middleware"
)

type Handlers struct {
	Health       *handler.HealthHandler
	Transactions *handler.TransactionHandler
	Commissions  *handler.CommissionHandler
	Accounts     *handler.AccountHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Replays        middleware.ReplayStore
}

func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", chimw.RequestIDHeader},
		ExposedHeaders: []string{"Location", chimw.RequestIDHeader, "X-Idempotent-Replayed"},
		MaxAge:         300,
	}))

	r.Get("/health/live", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(opts.JWTSecret))
		r.Use(middleware.Logging)
		r.Use(middleware.Idempotency(opts.Replays))

		supervisors := middleware.RequireRole(auth.RoleManager, auth.RoleAdmin)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.Transactions.List)
			r.Post("/", h.Transactions.Create)
			r.Get("/{id}", h.Transactions.Get)
			r.Get("/{id}/journal", h.Transactions.Journal)
			r.With(supervisors).Put("/{id}", h.Transactions.Update)
			r.With(supervisors).Delete("/{id}", h.Transactions.Delete)
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Post("/", h.Commissions.Create)
			r.Get("/{id}", h.Commissions.Get)
			r.Put("/{id}", h.Commissions.Update)
			r.Delete("/{id}", h.Commissions.Delete)
			r.With(supervisors).Post("/{id}/approve", h.Commissions.Approve)
			r.With(supervisors).Post("/{id}/reject", h.Commissions.Reject)
			r.With(supervisors).Post("/{id}/pay", h.Commissions.Pay)
		})

		r.Route("/float-accounts", func(r chi.Router) {
			r.Get("/", h.Accounts.List)
			r.Get("/{id}", h.Accounts.Get)
			r.Get("/{id}/statement", h.Accounts.Statement)
			r.With(supervisors).Post("/", h.Accounts.Create)
			r.With(supervisors).Post("/{id}/deactivate", h.Accounts.Deactivate)
		})

		r.With(supervisors).Route("/gl-mappings", func(r chi.Router) {
			r.Post("/", h.Accounts.CreateMapping)
			r.Delete("/{id}", h.Accounts.DeactivateMapping)
		})
	})

	return r
}

// NewServer wraps the router with the timeouts used in every deployment.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
