package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/ingest"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
)

// IngestRunner runs one ingestion pass over the price feed.
type IngestRunner interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// RegistryImporter refreshes the stored station registry.
type RegistryImporter interface {
	Run(ctx context.Context) (registry.ImportResult, error)
}

// Runner owns the scheduled ingest and registry import jobs.
type Runner struct {
	config   Config
	ingest   IngestRunner
	importer RegistryImporter
	logger   zerolog.Logger

	metrics *Metrics
}

// Metrics tracks runner statistics across jobs.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns       int64
	SuccessfulRuns  int64
	FailedRuns      int64
	StationsUpdated int64
	ChangesDetected int64
	RegistryImports int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RunnerConfig holds configuration for creating a Runner.
type RunnerConfig struct {
	Config   Config
	Ingest   IngestRunner
	Importer RegistryImporter
	Logger   zerolog.Logger
}

// NewRunner creates a new background runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		config:   cfg.Config.withDefaults(),
		ingest:   cfg.Ingest,
		importer: cfg.Importer,
		logger:   cfg.Logger,
		metrics:  &Metrics{},
	}
}

// RunIngest executes one ingestion pass with the configured timeout.
func (r *Runner) RunIngest(ctx context.Context) (ingest.Summary, error) {
	jobCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()

	start := time.Now()
	summary, err := r.ingest.Run(jobCtx)
	r.recordRun(start, summary, err)

	if err != nil {
		return summary, fmt.Errorf("ingest run: %w", err)
	}
	return summary, nil
}

// RunImport executes one registry import with the configured timeout.
func (r *Runner) RunImport(ctx context.Context) (registry.ImportResult, error) {
	jobCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()

	result, err := r.importer.Run(jobCtx)
	if err != nil {
		return result, fmt.Errorf("registry import: %w", err)
	}

	r.metrics.mu.Lock()
	r.metrics.RegistryImports++
	r.metrics.mu.Unlock()

	return result, nil
}

// Start runs the ticker loop until the context is cancelled. Ingest runs
// every IngestInterval; the registry import runs every ImportInterval, plus
// once at startup so a fresh deployment can reconcile its first feed pass.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info().
		Dur("ingest_interval", r.config.IngestInterval).
		Dur("import_interval", r.config.ImportInterval).
		Msg("starting background runner")

	if _, err := r.RunImport(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial registry import failed")
	}
	if _, err := r.RunIngest(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial ingest run failed")
	}

	ingestTicker := time.NewTicker(r.config.IngestInterval)
	defer ingestTicker.Stop()
	importTicker := time.NewTicker(r.config.ImportInterval)
	defer importTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("background runner stopping")
			return ctx.Err()
		case <-importTicker.C:
			if _, err := r.RunImport(ctx); err != nil {
				r.logger.Error().Err(err).Msg("scheduled registry import failed")
			}
		case <-ingestTicker.C:
			if _, err := r.RunIngest(ctx); err != nil {
				r.logger.Error().Err(err).Msg("scheduled ingest run failed")
			}
		}
	}
}

func (r *Runner) recordRun(start time.Time, summary ingest.Summary, err error) {
	duration := time.Since(start)

	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()

	r.metrics.TotalRuns++
	if err != nil {
		r.metrics.FailedRuns++
	} else {
		r.metrics.SuccessfulRuns++
		r.metrics.StationsUpdated += int64(summary.Updated)
		r.metrics.ChangesDetected += int64(summary.Changed)
	}
	r.metrics.LastRunAt = time.Now()
	r.metrics.LastRunDuration = duration
	r.metrics.TotalDuration += duration
}

// GetMetrics returns a copy of the current metrics.
func (r *Runner) GetMetrics() Metrics {
	r.metrics.mu.RLock()
	defer r.metrics.mu.RUnlock()

	return Metrics{
		TotalRuns:       r.metrics.TotalRuns,
		SuccessfulRuns:  r.metrics.SuccessfulRuns,
		FailedRuns:      r.metrics.FailedRuns,
		StationsUpdated: r.metrics.StationsUpdated,
		ChangesDetected: r.metrics.ChangesDetected,
		RegistryImports: r.metrics.RegistryImports,
		LastRunAt:       r.metrics.LastRunAt,
		LastRunDuration: r.metrics.LastRunDuration,
		TotalDuration:   r.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (r *Runner) MetricsSnapshot() map[string]interface{} {
	m := r.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_runs":   m.SuccessfulRuns,
		"failed_runs":       m.FailedRuns,
		"stations_updated":  m.StationsUpdated,
		"changes_detected":  m.ChangesDetected,
		"registry_imports":  m.RegistryImports,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
