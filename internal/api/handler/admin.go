package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dondendo89/Prezzibenzina/internal/api/models"
	"github.com/dondendo89/Prezzibenzina/internal/api/response"
	"github.com/dondendo89/Prezzibenzina/internal/ingest"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
)

// IngestRunner runs one ingestion pass over the price feed.
type IngestRunner interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// RegistryImporter refreshes the stored station registry.
type RegistryImporter interface {
	Run(ctx context.Context) (registry.ImportResult, error)
}

// AdminHandler handles administrative trigger endpoints.
type AdminHandler struct {
	ingest   IngestRunner
	importer RegistryImporter
	logger   zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ingest IngestRunner, importer RegistryImporter, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		ingest:   ingest,
		importer: importer,
		logger:   logger,
	}
}

// TriggerIngest handles POST /v1/admin/ingest. The run is synchronous: the
// response carries the summary of the completed pass.
func (h *AdminHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ingest.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("ingestion run failed")
		response.InternalError(w, r, "ingestion run failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.IngestResponse{
		OK:      true,
		Updated: summary.Updated,
		Changed: summary.Changed,
	})
}

// TriggerRegistryImport handles POST /v1/admin/registry-import.
func (h *AdminHandler) TriggerRegistryImport(w http.ResponseWriter, r *http.Request) {
	result, err := h.importer.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("registry import failed")
		response.InternalError(w, r, "registry import failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.RegistryImportResponse{
		OK:       true,
		Upserted: result.Upserted,
	})
}
