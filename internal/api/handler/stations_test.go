package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondendo89/Prezzibenzina/internal/api/handler"
	"github.com/dondendo89/Prezzibenzina/internal/api/models"
	"github.com/dondendo89/Prezzibenzina/internal/pricing"
)

func f64(v float64) *float64 { return &v }

type mockStationStore struct {
	states     map[string]*pricing.State
	lastFilter pricing.Filter
	history    []*pricing.ChangeEvent
	stats      *pricing.Stats
	err        error
}

func (m *mockStationStore) Get(_ context.Context, id string) (*pricing.State, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.states[id]
	if !ok {
		return nil, pricing.ErrStateNotFound
	}
	return s, nil
}

func (m *mockStationStore) List(_ context.Context, f pricing.Filter) ([]*pricing.State, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastFilter = f
	all := make([]*pricing.State, 0, len(m.states))
	for _, s := range m.states {
		all = append(all, s)
	}
	return all, nil
}

func (m *mockStationStore) History(_ context.Context, _ string, _ int) ([]*pricing.ChangeEvent, error) {
	return m.history, m.err
}

func (m *mockStationStore) Stats(_ context.Context) (*pricing.Stats, error) {
	return m.stats, m.err
}

type mockRegistryCounter struct {
	count int
	err   error
}

func (m *mockRegistryCounter) Count(_ context.Context) (int, error) {
	return m.count, m.err
}

func testState() *pricing.State {
	return &pricing.State{
		ID:           "001",
		Name:         "Q8 Milano Centrale",
		Municipality: "Milano",
		Province:     "MI",
		FuelType:     "Benzina",
		Lat:          45.48,
		Lon:          9.20,
		CurrentPrice: f64(1.879),
		UpdatedAt:    time.Now(),
	}
}

func newStationRouter(store *mockStationStore, registry *mockRegistryCounter) *chi.Mux {
	h := handler.NewStationHandler(store, registry, zerolog.New(io.Discard))
	r := chi.NewRouter()
	r.Get("/v1/stations", h.ListStations)
	r.Get("/v1/stations/{stationId}", h.GetStation)
	r.Get("/v1/stats", h.GetStats)
	return r
}

func TestListStations(t *testing.T) {
	store := &mockStationStore{states: map[string]*pricing.State{"001": testState()}}
	r := newStationRouter(store, &mockRegistryCounter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stations?tipo=Benzina&provincia=MI&q=Q8", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var list models.StationList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "001", list.Data[0].ID)
	assert.Equal(t, 1.879, *list.Data[0].CurrentPrice)

	// Query parameters reach the store filter.
	assert.Equal(t, "Benzina", store.lastFilter.FuelType)
	assert.Equal(t, "MI", store.lastFilter.Province)
	assert.Equal(t, "Q8", store.lastFilter.Query)
}

func TestListStations_InvalidLimit(t *testing.T) {
	r := newStationRouter(&mockStationStore{}, &mockRegistryCounter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stations?limit=abc", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit")
}

func TestGetStation_NotFound(t *testing.T) {
	r := newStationRouter(&mockStationStore{states: map[string]*pricing.State{}}, &mockRegistryCounter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stations/999", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestGetStation_WithHistory(t *testing.T) {
	store := &mockStationStore{
		states: map[string]*pricing.State{"001": testState()},
		history: []*pricing.ChangeEvent{
			{StationID: "001", Price: f64(1.879), ChangedAt: time.Now()},
			{StationID: "001", Price: f64(1.865), ChangedAt: time.Now().Add(-24 * time.Hour)},
		},
	}
	r := newStationRouter(store, &mockRegistryCounter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stations/001?history=true", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var detail models.StationDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "001", detail.Data.ID)
	require.Len(t, detail.History, 2)
	assert.Equal(t, 1.879, *detail.History[0].Price)
}

func TestGetStation_WithoutHistory(t *testing.T) {
	store := &mockStationStore{
		states:  map[string]*pricing.State{"001": testState()},
		history: []*pricing.ChangeEvent{{StationID: "001"}},
	}
	r := newStationRouter(store, &mockRegistryCounter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stations/001", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "storico")
}

func TestGetStats(t *testing.T) {
	store := &mockStationStore{
		stats: &pricing.Stats{
			States:     120,
			NullPrices: 4,
			ByFuelType: map[string]int{"Benzina": 70, "Gasolio": 50},
		},
	}
	r := newStationRouter(store, &mockRegistryCounter{count: 22000})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 22000, stats.RegistryStations)
	assert.Equal(t, 120, stats.PricedStations)
	assert.Equal(t, 4, stats.NullPrices)
	assert.Equal(t, 70, stats.ByFuelType["Benzina"])
}
