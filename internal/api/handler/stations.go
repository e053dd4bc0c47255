package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/api/models"
	"github.com/dondendo89/Prezzibenzina/internal/api/response"
	"github.com/dondendo89/Prezzibenzina/internal/pricing"
)

// historyLimit is the number of change events returned with a station detail.
const historyLimit = 100

// StationStore provides read access to station price states.
type StationStore interface {
	Get(ctx context.Context, id string) (*pricing.State, error)
	List(ctx context.Context, f pricing.Filter) ([]*pricing.State, error)
	History(ctx context.Context, id string, limit int) ([]*pricing.ChangeEvent, error)
	Stats(ctx context.Context) (*pricing.Stats, error)
}

// RegistryCounter reports the size of the stored station registry.
type RegistryCounter interface {
	Count(ctx context.Context) (int, error)
}

// StationHandler handles station read endpoints.
type StationHandler struct {
	stations StationStore
	registry RegistryCounter
	logger   zerolog.Logger
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations StationStore, registry RegistryCounter, logger zerolog.Logger) *StationHandler {
	return &StationHandler{
		stations: stations,
		registry: registry,
		logger:   logger,
	}
}

// ListStations handles GET /v1/stations.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := pricing.Filter{
		FuelType:     q.Get("tipo"),
		Province:     q.Get("provincia"),
		Municipality: q.Get("comune"),
		Query:        q.Get("q"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "invalid"},
			})
			return
		}
		filter.Limit = limit
	}

	states, err := h.stations.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list stations")
		response.InternalError(w, r, "failed to list stations")
		return
	}

	list := models.StationList{Data: make([]models.Station, 0, len(states))}
	for _, s := range states {
		list.Data = append(list.Data, toStationModel(s))
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetStation handles GET /v1/stations/{stationId}.
// With ?history=true the response includes the most recent change events.
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	state, err := h.stations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pricing.ErrStateNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		h.logger.Error().Err(err).Str("station_id", id).Msg("failed to load station")
		response.InternalError(w, r, "failed to load station")
		return
	}

	detail := models.StationDetail{Data: toStationModel(state)}

	if r.URL.Query().Get("history") == "true" {
		events, err := h.stations.History(r.Context(), id, historyLimit)
		if err != nil {
			h.logger.Error().Err(err).Str("station_id", id).Msg("failed to load change history")
			response.InternalError(w, r, "failed to load change history")
			return
		}
		detail.History = make([]models.PriceChange, 0, len(events))
		for _, e := range events {
			detail.History = append(detail.History, models.PriceChange{
				StationID: e.StationID,
				Price:     e.Price,
				ChangedAt: models.Timestamp(e.ChangedAt),
			})
		}
	}

	response.JSON(w, r, http.StatusOK, detail)
}

// GetStats handles GET /v1/stats.
func (h *StationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stations.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute stats")
		response.InternalError(w, r, "failed to compute stats")
		return
	}

	registrySize, err := h.registry.Count(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count registry entries")
		response.InternalError(w, r, "failed to count registry entries")
		return
	}

	response.JSON(w, r, http.StatusOK, models.StatsResponse{
		RegistryStations: registrySize,
		PricedStations:   stats.States,
		NullPrices:       stats.NullPrices,
		ByFuelType:       stats.ByFuelType,
	})
}

func toStationModel(s *pricing.State) models.Station {
	return models.Station{
		ID:            s.ID,
		Name:          s.Name,
		Municipality:  s.Municipality,
		Province:      s.Province,
		FuelType:      s.FuelType,
		Lat:           s.Lat,
		Lon:           s.Lon,
		CurrentPrice:  s.CurrentPrice,
		PreviousPrice: s.PreviousPrice,
		Changed:       s.Changed,
		UpdatedAt:     models.Timestamp(s.UpdatedAt),
	}
}
