// Package registry maintains the station registry (the MIMIT "anagrafica"):
// per-station metadata and geocoordinates, imported separately from prices.
package registry

import (
	"context"
	"errors"
)

// Registry errors.
var (
	ErrStationNotFound = errors.New("registry station not found")
	ErrFetchFailed     = errors.New("registry fetch failed")
)

// Station is one registry entry. Lat/Lon are nil until the source row carries
// coordinates; entries without them are not imported.
type Station struct {
	ID           string
	Name         string
	Municipality string
	Province     string
	FuelType     string
	Lat          *float64
	Lon          *float64
}

// Repository provides access to stored registry entries.
type Repository interface {
	// Upsert inserts or replaces a registry entry keyed by station ID.
	Upsert(ctx context.Context, s *Station) error

	// Get retrieves a single entry, or ErrStationNotFound.
	Get(ctx context.Context, id string) (*Station, error)

	// GetAll returns every stored entry.
	GetAll(ctx context.Context) ([]*Station, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// Index builds a station-ID lookup map for a reconciliation run.
func Index(stations []*Station) map[string]*Station {
	idx := make(map[string]*Station, len(stations))
	for _, s := range stations {
		idx[s.ID] = s
	}
	return idx
}
