// Package ingest orchestrates one ingestion run: feed fetch, registry
// reconciliation, change detection and persistence, and the change broadcast.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/feed"
	"github.com/dondendo89/Prezzibenzina/internal/pricing"
	"github.com/dondendo89/Prezzibenzina/internal/push"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
)

// FeedSource abstracts the price feed for the pipeline.
type FeedSource interface {
	FetchRecords(ctx context.Context) ([]feed.Record, error)
}

// ServiceConfig holds the collaborators of the ingestion pipeline. Everything
// is passed in at construction; the service keeps no cross-run state.
type ServiceConfig struct {
	Feed          FeedSource
	Registry      registry.Repository
	Pricing       pricing.Repository
	Subscriptions push.Repository
	Broadcaster   *push.Broadcaster
	Logger        zerolog.Logger
}

// Service runs the ingestion pipeline.
type Service struct {
	feed          FeedSource
	registry      registry.Repository
	pricing       pricing.Repository
	subscriptions push.Repository
	broadcaster   *push.Broadcaster
	logger        zerolog.Logger
}

// NewService creates a new ingestion service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		feed:          cfg.Feed,
		registry:      cfg.Registry,
		pricing:       cfg.Pricing,
		subscriptions: cfg.Subscriptions,
		broadcaster:   cfg.Broadcaster,
		logger:        cfg.Logger,
	}
}

// Summary reports the outcome of one run.
type Summary struct {
	Updated int `json:"updated"`
	Changed int `json:"changed"`
}

// Run executes one ingestion run.
//
// The feed fetch and the index loads happen before any write, so a fetch
// failure aborts with nothing persisted. Store failures abort the run at the
// failing station: continuing would make later previous-price comparisons
// undefined. Committed stations stay committed; the run is safe to repeat,
// since an identical snapshot detects no changes and appends no history.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	start := time.Now()

	records, err := s.feed.FetchRecords(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch feed: %w", err)
	}

	regStations, err := s.registry.GetAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("load registry: %w", err)
	}
	regIdx := registry.Index(regStations)

	prevStates, err := s.pricing.GetAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("load price states: %w", err)
	}
	prevIdx := pricing.IndexStates(prevStates)

	s.logger.Info().
		Int("records", len(records)).
		Int("registry_entries", len(regStations)).
		Int("known_states", len(prevStates)).
		Msg("starting ingestion run")

	skipped := 0
	now := time.Now()
	for _, rec := range records {
		resolved, ok := pricing.Resolve(rec, regIdx[rec.StationID], prevIdx[rec.StationID])
		if !ok {
			skipped++
			continue
		}

		state, event := pricing.Detect(resolved, prevIdx[rec.StationID], now)

		if err := s.pricing.Upsert(ctx, &state); err != nil {
			return summary, fmt.Errorf("upsert state %s: %w", state.ID, err)
		}
		if event != nil {
			if err := s.pricing.AppendChange(ctx, event); err != nil {
				return summary, fmt.Errorf("append change %s: %w", state.ID, err)
			}
			summary.Changed++
		}
		summary.Updated++

		// The feed can carry several rows per station (one per fuel); later
		// rows must compare against the state just written, not the one
		// loaded at the start of the run.
		prevIdx[state.ID] = &state
	}

	s.logger.Info().
		Int("updated", summary.Updated).
		Int("changed", summary.Changed).
		Int("skipped", skipped).
		Dur("duration", time.Since(start)).
		Msg("ingestion run completed")

	if summary.Changed > 0 {
		s.notify(ctx, summary.Changed)
	}

	return summary, nil
}

// notify broadcasts the change summary to every subscription. Notification
// problems are recorded, never escalated: delivery is at-least-once,
// best-effort.
func (s *Service) notify(ctx context.Context, changed int) {
	subs, err := s.subscriptions.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load push subscriptions, skipping broadcast")
		return
	}
	if len(subs) == 0 {
		return
	}

	payload := push.Payload{
		Title: "Variazioni prezzo carburanti",
		Body:  fmt.Sprintf("%d impianti aggiornati", changed),
		URL:   "/",
	}

	report := s.broadcaster.Broadcast(ctx, payload, subs)

	for _, endpoint := range report.GoneEndpoints() {
		if err := s.subscriptions.Delete(ctx, endpoint); err != nil {
			s.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("failed to prune expired subscription")
		}
	}
}
