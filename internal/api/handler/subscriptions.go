package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/api/models"
	"github.com/dondendo89/Prezzibenzina/internal/api/response"
	"github.com/dondendo89/Prezzibenzina/internal/push"
)

// SubscriptionHandler handles push subscription endpoints.
type SubscriptionHandler struct {
	subscriptions push.Repository
	logger        zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptions push.Repository, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Subscribe handles POST /v1/subscriptions. Registering the same endpoint
// again replaces the stored keys and filters.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req models.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	var fieldErrors []models.FieldError
	if req.Subscription.Endpoint == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "subscription.endpoint", Message: "is required", Code: "required",
		})
	}
	if req.Subscription.Keys.P256dh == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "subscription.keys.p256dh", Message: "is required", Code: "required",
		})
	}
	if req.Subscription.Keys.Auth == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "subscription.keys.auth", Message: "is required", Code: "required",
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid subscription", fieldErrors)
		return
	}

	sub := &push.Subscription{
		Endpoint: req.Subscription.Endpoint,
		Keys: push.Keys{
			P256dh: req.Subscription.Keys.P256dh,
			Auth:   req.Subscription.Keys.Auth,
		},
		CreatedAt: time.Now(),
	}
	if req.Filters != nil {
		sub.Filters = &push.Filters{StationID: req.Filters.StationID}
	}

	if err := h.subscriptions.Upsert(r.Context(), sub); err != nil {
		h.logger.Error().Err(err).Msg("failed to store subscription")
		response.InternalError(w, r, "failed to store subscription")
		return
	}

	response.JSON(w, r, http.StatusCreated, models.SubscribeResponse{OK: true})
}

// Count handles GET /v1/subscriptions/count.
func (h *SubscriptionHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.subscriptions.Count(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count subscriptions")
		response.InternalError(w, r, "failed to count subscriptions")
		return
	}
	response.JSON(w, r, http.StatusOK, models.SubscriptionCount{Count: count})
}
