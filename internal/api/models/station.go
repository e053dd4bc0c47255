package models

// Station is the API representation of a station price state.
type Station struct {
	ID            string    `json:"id"`
	Name          string    `json:"nome"`
	Municipality  string    `json:"comune"`
	Province      string    `json:"provincia"`
	FuelType      string    `json:"tipo"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	CurrentPrice  *float64  `json:"prezzo_attuale"`
	PreviousPrice *float64  `json:"prezzo_precedente"`
	Changed       bool      `json:"variazione"`
	UpdatedAt     Timestamp `json:"timestamp"`
}

// PriceChange is one change-history entry.
type PriceChange struct {
	StationID string    `json:"id"`
	Price     *float64  `json:"prezzo"`
	ChangedAt Timestamp `json:"changed_at"`
}

// StationList wraps a station listing.
type StationList struct {
	Data []Station `json:"data"`
}

// StationDetail wraps a single station, optionally with its change history.
type StationDetail struct {
	Data    Station       `json:"data"`
	History []PriceChange `json:"storico,omitempty"`
}

// StatsResponse aggregates counts over the registry and the price states.
type StatsResponse struct {
	RegistryStations int            `json:"impianti"`
	PricedStations   int            `json:"benzinai"`
	NullPrices       int            `json:"prezzi_null"`
	ByFuelType       map[string]int `json:"per_tipo"`
}

// SubscribeRequest registers a push endpoint.
type SubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
	Filters *struct {
		StationID string `json:"station_id,omitempty"`
	} `json:"filters,omitempty"`
}

// SubscribeResponse acknowledges a stored subscription.
type SubscribeResponse struct {
	OK bool `json:"ok"`
}

// SubscriptionCount reports the number of registered endpoints.
type SubscriptionCount struct {
	Count int `json:"count"`
}

// IngestResponse reports the outcome of an admin-triggered ingestion run.
type IngestResponse struct {
	OK      bool `json:"ok"`
	Updated int  `json:"updated"`
	Changed int  `json:"changed"`
}

// RegistryImportResponse reports the outcome of a registry import.
type RegistryImportResponse struct {
	OK       bool `json:"ok"`
	Upserted int  `json:"upserted"`
}
