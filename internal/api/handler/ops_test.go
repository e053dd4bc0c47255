package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondendo89/Prezzibenzina/internal/api/handler"
	"github.com/dondendo89/Prezzibenzina/internal/api/models"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func TestHealthCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "2026-08-31T08:00:00Z", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.3", health.Details["version"])
}

func TestReadinessCheck_DatabaseUp(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "", &mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "", &mockPinger{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
}
