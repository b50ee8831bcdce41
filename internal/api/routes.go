package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"breakout-desk/config"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack. No request timeout: strategy calls are unbounded and
	// run in the background anyway.
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.HandleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetSession)
				r.Delete("/", h.HandleDeleteSession)
				r.Put("/form", h.HandleUpdateForm)
				r.Post("/strategy", h.HandleSubmitStrategy)
				r.Post("/scan", h.HandleSubmitScan)
				r.Post("/candidates/{ticker}/select", h.HandleSelectCandidate)
			})
		})
	})

	return r
}
