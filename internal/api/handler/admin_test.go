package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondendo89/Prezzibenzina/internal/api/handler"
	"github.com/dondendo89/Prezzibenzina/internal/api/models"
	"github.com/dondendo89/Prezzibenzina/internal/ingest"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
)

type mockIngestRunner struct {
	summary ingest.Summary
	err     error
	runs    int
}

func (m *mockIngestRunner) Run(_ context.Context) (ingest.Summary, error) {
	m.runs++
	return m.summary, m.err
}

type mockRegistryImporter struct {
	result registry.ImportResult
	err    error
}

func (m *mockRegistryImporter) Run(_ context.Context) (registry.ImportResult, error) {
	return m.result, m.err
}

func TestTriggerIngest(t *testing.T) {
	runner := &mockIngestRunner{summary: ingest.Summary{Updated: 25000, Changed: 312}}
	h := handler.NewAdminHandler(runner, &mockRegistryImporter{}, zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/ingest", http.NoBody)
	rec := httptest.NewRecorder()
	h.TriggerIngest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.runs)

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 25000, resp.Updated)
	assert.Equal(t, 312, resp.Changed)
}

func TestTriggerIngest_RunFailure(t *testing.T) {
	runner := &mockIngestRunner{err: errors.New("upstream unavailable")}
	h := handler.NewAdminHandler(runner, &mockRegistryImporter{}, zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/ingest", http.NoBody)
	rec := httptest.NewRecorder()
	h.TriggerIngest(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestTriggerRegistryImport(t *testing.T) {
	importer := &mockRegistryImporter{result: registry.ImportResult{Upserted: 21984, Skipped: 42}}
	h := handler.NewAdminHandler(&mockIngestRunner{}, importer, zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/registry-import", http.NoBody)
	rec := httptest.NewRecorder()
	h.TriggerRegistryImport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RegistryImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 21984, resp.Upserted)
}

func TestTriggerRegistryImport_Failure(t *testing.T) {
	importer := &mockRegistryImporter{err: errors.New("store unavailable")}
	h := handler.NewAdminHandler(&mockIngestRunner{}, importer, zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/registry-import", http.NoBody)
	rec := httptest.NewRecorder()
	h.TriggerRegistryImport(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
