// Package main provides the entrypoint for the Prezzibenzina background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/database"
	"github.com/dondendo89/Prezzibenzina/internal/feed"
	"github.com/dondendo89/Prezzibenzina/internal/ingest"
	"github.com/dondendo89/Prezzibenzina/internal/pricing"
	"github.com/dondendo89/Prezzibenzina/internal/push"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
	"github.com/dondendo89/Prezzibenzina/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "prezzibenzina-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Prezzibenzina worker")

	// Worker also exposes a health endpoint for the orchestrator
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Repositories and upstream clients
	registryRepo := registry.NewPostgresRepository(pool)
	pricingRepo := pricing.NewPostgresRepository(pool)
	subscriptionRepo := push.NewPostgresRepository(pool)
	feedClient := feed.NewClient(feed.ClientConfig{URL: os.Getenv("FEED_URL")})
	registryClient := registry.NewClient(registry.ClientConfig{URL: os.Getenv("REGISTRY_URL")})

	vapidSubject := os.Getenv("VAPID_SUBJECT")
	if vapidSubject == "" {
		vapidSubject = "mailto:info@prezzibenzina.it"
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

	runnerConfig := worker.DefaultConfig()
	if v := os.Getenv("INGEST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			runnerConfig.IngestInterval = d
		}
	}
	if v := os.Getenv("IMPORT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			runnerConfig.ImportInterval = d
		}
	}

	runner := worker.NewRunner(worker.RunnerConfig{
		Config:   runnerConfig,
		Ingest:   ingestService,
		Importer: importer,
		Logger:   log,
	})

	// Health and metrics endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		snap := runner.MetricsSnapshot()
		fmt.Fprintf(w, `{"total_runs":%v,"successful_runs":%v,"failed_runs":%v,"changes_detected":%v}`,
			snap["total_runs"], snap["successful_runs"], snap["failed_runs"], snap["changes_detected"])
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// With a Pub/Sub subscription configured the worker is message-driven;
	// otherwise it falls back to the interval ticker.
	subscriptionName := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscriptionName != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
			SubscriptionName: subscriptionName,
			Runner:           runner,
			DB:               pool,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		go func() {
			if err := runner.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("background runner stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
