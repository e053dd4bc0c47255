// Package pricing owns the per-station price state: reconciliation of feed
// rows against the registry, change detection, and the persisted
// current-state and change-history records.
package pricing

import (
	"context"
	"errors"
	"time"
)

// Pricing errors.
var (
	ErrStateNotFound = errors.New("price state not found")
)

// State is the current-state record for one station. Lat/Lon are always
// valid: a record that cannot be placed on the map is never persisted.
type State struct {
	ID            string
	Name          string
	Municipality  string
	Province      string
	FuelType      string
	Lat           float64
	Lon           float64
	CurrentPrice  *float64
	PreviousPrice *float64
	Changed       bool
	UpdatedAt     time.Time
}

// ChangeEvent is an append-only history entry recording one detected price
// change. Events are never mutated or deleted.
type ChangeEvent struct {
	StationID string
	Price     *float64
	ChangedAt time.Time
}

// Resolved is a feed record enriched with registry and prior-state metadata,
// ready for change detection.
type Resolved struct {
	ID           string
	Name         string
	Municipality string
	Province     string
	FuelType     string
	Lat          float64
	Lon          float64
	Price        *float64
}

// Filter narrows a state listing.
type Filter struct {
	FuelType     string
	Province     string
	Municipality string
	Query        string
	Limit        int
}

// Stats summarizes the stored price states.
type Stats struct {
	States     int            `json:"states"`
	NullPrices int            `json:"null_prices"`
	ByFuelType map[string]int `json:"by_fuel_type"`
}

// Repository provides access to price states and change history.
type Repository interface {
	// Get retrieves the state for a station, or ErrStateNotFound.
	Get(ctx context.Context, id string) (*State, error)

	// GetAll returns every stored state (the previous-state index for a run).
	GetAll(ctx context.Context) ([]*State, error)

	// List returns states matching the filter.
	List(ctx context.Context, f Filter) ([]*State, error)

	// Upsert atomically inserts or replaces the state for a station.
	Upsert(ctx context.Context, s *State) error

	// AppendChange appends one history entry.
	AppendChange(ctx context.Context, e *ChangeEvent) error

	// History returns the most recent change events for a station,
	// newest first.
	History(ctx context.Context, id string, limit int) ([]*ChangeEvent, error)

	// Stats returns aggregate counts over the stored states.
	Stats(ctx context.Context) (*Stats, error)
}

// IndexStates builds a station-ID lookup map for a reconciliation run.
func IndexStates(states []*State) map[string]*State {
	idx := make(map[string]*State, len(states))
	for _, s := range states {
		idx[s.ID] = s
	}
	return idx
}

// PriceEqual compares two nullable prices.
func PriceEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
