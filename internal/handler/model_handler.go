package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/scoring"
	"github.com/rs/zerolog"
)

type modelProvider interface {
	Status() scoring.Status
	Reload() (scoring.Status, error)
}

// ModelHandler exposes the scoring capability's status and reload.
type ModelHandler struct {
	provider modelProvider
	log      zerolog.Logger
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(provider modelProvider, log zerolog.Logger) *ModelHandler {
	return &ModelHandler{
		provider: provider,
		log:      log.With().Str("component", "model_handler").Logger(),
	}
}

// Status godoc
// GET /api/v1/admin/model
func (h *ModelHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.provider.Status())
}

// Reload godoc
// POST /api/v1/admin/model/reload
// Re-reads the model source. On failure the previous capability stays active
// and its status is returned alongside the error.
func (h *ModelHandler) Reload(c *gin.Context) {
	status, err := h.provider.Reload()
	if err != nil {
		h.log.Warn().Err(err).Msg("Model reload failed")
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrModelLoadFailed, map[string]string{
			"detail": err.Error(),
			"mode":   status.Mode,
		})
		return
	}

	response.Success(c, http.StatusOK, status)
}
