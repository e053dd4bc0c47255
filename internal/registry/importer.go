package registry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Fetcher abstracts the registry source for the importer.
type Fetcher interface {
	FetchStations(ctx context.Context) ([]*Station, error)
}

// ImporterConfig holds configuration for the registry importer.
type ImporterConfig struct {
	Fetcher    Fetcher
	Repository Repository
	Logger     zerolog.Logger
}

// Importer refreshes the stored registry from the MIMIT export.
type Importer struct {
	fetcher Fetcher
	repo    Repository
	logger  zerolog.Logger
}

// NewImporter creates a new registry importer.
func NewImporter(cfg ImporterConfig) *Importer {
	return &Importer{
		fetcher: cfg.Fetcher,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
	}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
}

// Run fetches the registry export and upserts every row that carries
// coordinates. Rows without coordinates are skipped: they cannot help the
// map view and would poison the reconciliation fallback chain. A store
// failure aborts the run.
func (i *Importer) Run(ctx context.Context) (ImportResult, error) {
	var result ImportResult

	stations, err := i.fetcher.FetchStations(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch registry: %w", err)
	}

	for _, s := range stations {
		if s.Lat == nil || s.Lon == nil {
			result.Skipped++
			continue
		}
		if err := i.repo.Upsert(ctx, s); err != nil {
			return result, fmt.Errorf("upsert station %s: %w", s.ID, err)
		}
		result.Upserted++
	}

	i.logger.Info().
		Int("upserted", result.Upserted).
		Int("skipped", result.Skipped).
		Msg("registry import completed")

	return result, nil
}
