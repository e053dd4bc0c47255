// Package main provides the entrypoint for the Prezzibenzina API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/api"
	"github.com/dondendo89/Prezzibenzina/internal/api/middleware"
	"github.com/dondendo89/Prezzibenzina/internal/database"
	"github.com/dondendo89/Prezzibenzina/internal/feed"
	"github.com/dondendo89/Prezzibenzina/internal/ingest"
	"github.com/dondendo89/Prezzibenzina/internal/pricing"
	"github.com/dondendo89/Prezzibenzina/internal/push"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
	"github.com/dondendo89/Prezzibenzina/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "prezzibenzina-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Prezzibenzina API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Repositories
	registryRepo := registry.NewPostgresRepository(pool)
	pricingRepo := pricing.NewPostgresRepository(pool)
	subscriptionRepo := push.NewPostgresRepository(pool)

	// Upstream clients (resilient HTTP with retries and circuit breaker)
	feedClient := feed.NewClient(feed.ClientConfig{URL: os.Getenv("FEED_URL")})
	registryClient := registry.NewClient(registry.ClientConfig{URL: os.Getenv("REGISTRY_URL")})

	// Web Push sender
	vapidSubject := os.Getenv("VAPID_SUBJECT")
	if vapidSubject == "" {
		vapidSubject = "mailto:info@prezzibenzina.it"
	}
	if os.Getenv("VAPID_PUBLIC_KEY") == "" || os.Getenv("VAPID_PRIVATE_KEY") == "" {
		log.Warn().Msg("VAPID keys not configured - push delivery will fail")
	}
	sender := push.NewWebPushSender(push.VAPIDConfig{
		Subject:    vapidSubject,
		PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	})
	broadcaster := push.NewBroadcaster(push.BroadcasterConfig{
		Sender: sender,
		Logger: log,
	})

	// Ingestion pipeline and registry importer for the admin triggers
	ingestService := ingest.NewService(ingest.ServiceConfig{
		Feed:          feedClient,
		Registry:      registryRepo,
		Pricing:       pricingRepo,
		Subscriptions: subscriptionRepo,
		Broadcaster:   broadcaster,
		Logger:        log,
	})
	importer := registry.NewImporter(registry.ImporterConfig{
		Fetcher:    registryClient,
		Repository: registryRepo,
		Logger:     log,
	})
	log.Info().Msg("ingestion pipeline initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       metrics,
		DB:            pool,
		Stations:      pricingRepo,
		Registry:      registryRepo,
		Subscriptions: subscriptionRepo,
		Ingest:        ingestService,
		Importer:      importer,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
