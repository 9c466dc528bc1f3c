package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/validator"
)

type assessmentService interface {
	Assess(ctx context.Context, req *model.AssessRequest) (*model.AssessmentResult, error)
	LatestResult(ctx context.Context, studentPK int) (*model.AssessmentResult, error)
	History(ctx context.Context, studentPK int) ([]model.Prediction, error)
	RescoreAll(ctx context.Context) (int, error)
}

// AssessmentHandler runs and reads risk assessments.
type AssessmentHandler struct {
	assessments assessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessments assessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// Assess godoc
// POST /api/v1/assessments
// Scores the submitted student and stores the result. A failing model still
// answers 201 with a degraded MODERATE result.
func (h *AssessmentHandler) Assess(c *gin.Context) {
	var req model.AssessRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.assessments.Assess(c.Request.Context(), &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Latest godoc
// GET /api/v1/students/:id/assessment
func (h *AssessmentHandler) Latest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := h.assessments.LatestResult(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// History godoc
// GET /api/v1/students/:id/predictions
func (h *AssessmentHandler) History(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	predictions, err := h.assessments.History(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	if predictions == nil {
		predictions = []model.Prediction{}
	}

	response.Success(c, http.StatusOK, gin.H{"predictions": predictions})
}

// Rescore godoc
// POST /api/v1/admin/rescore
// Re-assesses every stored student; results are persisted by the worker.
func (h *AssessmentHandler) Rescore(c *gin.Context) {
	queued, err := h.assessments.RescoreAll(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": queued})
}
