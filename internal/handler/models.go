package handler

import (
	"log/slog"
	"net/http"

	"github.com/sterling9879/Sage-IA/internal/domain/services"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// ModelsHandler serves the model catalog
type ModelsHandler struct {
	catalog services.ModelCatalog
	logger  *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(catalog services.ModelCatalog, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListModels returns the enabled models in display order
// GET /api/models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalog.ListAvailable(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if models == nil {
		models = []services.ModelInfo{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}
