// Package worker provides background job processing for Prezzibenzina.
package worker

import (
	"time"
)

// Config holds configuration for the background runner.
type Config struct {
	// IngestInterval is how often the price feed is ingested in ticker mode.
	// Default: 30 minutes (the upstream export refreshes a few times a day).
	IngestInterval time.Duration

	// ImportInterval is how often the station registry is re-imported.
	// Default: 24 hours.
	ImportInterval time.Duration

	// JobTimeout bounds a single ingest or import run.
	// Default: 5 minutes
	JobTimeout time.Duration
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		IngestInterval: 30 * time.Minute,
		ImportInterval: 24 * time.Hour,
		JobTimeout:     5 * time.Minute,
	}
}

// withDefaults fills in zero fields.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IngestInterval <= 0 {
		c.IngestInterval = d.IngestInterval
	}
	if c.ImportInterval <= 0 {
		c.ImportInterval = d.ImportInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	return c
}
