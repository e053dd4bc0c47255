// Package api provides the HTTP API for Prezzibenzina.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/api/handler"
	"github.com/dondendo89/Prezzibenzina/internal/api/middleware"
	"github.com/dondendo89/Prezzibenzina/internal/push"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	DB            handler.Pinger
	Stations      handler.StationStore
	Registry      handler.RegistryCounter
	Subscriptions push.Repository
	Ingest        handler.IngestRunner
	Importer      handler.RegistryImporter
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "prezzibenzina-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	stationHandler := handler.NewStationHandler(cfg.Stations, cfg.Registry, cfg.Logger)
	subscriptionHandler := handler.NewSubscriptionHandler(cfg.Subscriptions, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.Ingest, cfg.Importer, cfg.Logger)

	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)       // 10 req/min
	writeRateLimit := middleware.RateLimitByIP(middleware.WriteRateLimit)       // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, unthrottled for orchestrator probes)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Station read endpoints
		r.Route("/stations", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", stationHandler.ListStations)
			r.Get("/{stationId}", stationHandler.GetStation)
		})
		r.With(standardRateLimit).Get("/stats", stationHandler.GetStats)

		// Push subscriptions
		r.Route("/subscriptions", func(r chi.Router) {
			r.With(writeRateLimit).Post("/", subscriptionHandler.Subscribe)
			r.With(standardRateLimit).Get("/count", subscriptionHandler.Count)
		})

		// Admin triggers - each hit can start a full run against the
		// upstream sources, so the strictest limit applies.
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/ingest", adminHandler.TriggerIngest)
			r.Post("/registry-import", adminHandler.TriggerRegistryImport)
		})
	})

	return r
}
