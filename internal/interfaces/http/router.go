// Package http assembles the REST surface: router, server, handlers, and
// middleware.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/prometheus"
	"github.com/medledger/claimguard/internal/interfaces/http/handlers"
	"github.com/medledger/claimguard/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	PatientHandler *handlers.PatientHandler
	ClaimHandler   *handlers.ClaimHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler

	// Middleware
	LoggingMiddleware *middleware.LoggingMiddleware

	// Infrastructure
	Metrics *prometheus.Metrics
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration.  It wires global middleware, public health endpoints, and
// the API v1 resource groups into a single http.Handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}

	// Public probes, no API prefix.
	r.Group(func(pub chi.Router) {
		if cfg.HealthHandler != nil {
			pub.Get("/healthz", cfg.HealthHandler.Liveness)
			pub.Get("/readyz", cfg.HealthHandler.Readiness)
		}
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerPatientRoutes(api, cfg.PatientHandler)
		registerClaimRoutes(api, cfg.ClaimHandler)
		registerAdminRoutes(api, cfg.AdminHandler)
	})

	return r
}

// registerPatientRoutes mounts patient endpoints under /patients.
func registerPatientRoutes(r chi.Router, h *handlers.PatientHandler) {
	if h == nil {
		return
	}
	r.Route("/patients", func(pr chi.Router) {
		pr.Post("/", h.Register)
		pr.Get("/{patientID}", h.Get)
	})
}

// registerClaimRoutes mounts claim submission, lookup, the provider queue,
// provider decisions, and the stateless scoring probe.
func registerClaimRoutes(r chi.Router, h *handlers.ClaimHandler) {
	if h == nil {
		return
	}
	r.Route("/claims", func(cr chi.Router) {
		cr.Post("/", h.Submit)

		cr.Route("/{claimID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Post("/approve", h.Approve)
			item.Post("/reject", h.Reject)
		})
	})

	r.Get("/providers/{providerID}/claims", h.ProviderQueue)
	r.Post("/score-claim", h.ScoreDiagnostic)
}

// registerAdminRoutes mounts the admin review surface under /admin.
func registerAdminRoutes(r chi.Router, h *handlers.AdminHandler) {
	if h == nil {
		return
	}
	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/claims", h.Queue)

		ar.Route("/claims/{claimID}", func(item chi.Router) {
			item.Post("/approve", h.Approve)
			item.Post("/reject", h.Reject)
			item.Get("/report", h.Report)
		})

		ar.Get("/stats", h.Stats)
	})
}
