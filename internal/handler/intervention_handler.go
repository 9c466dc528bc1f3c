package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/middleware"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/validator"
)

type interventionService interface {
	Create(ctx context.Context, studentPK int, req *model.CreateInterventionRequest, createdBy *int) (*model.Intervention, error)
	ListForStudent(ctx context.Context, studentPK int) ([]model.Intervention, error)
	Update(ctx context.Context, id int, req *model.UpdateInterventionRequest) (*model.Intervention, error)
}

// InterventionHandler schedules and tracks interventions.
type InterventionHandler struct {
	interventions interventionService
}

// NewInterventionHandler creates a new InterventionHandler.
func NewInterventionHandler(interventions interventionService) *InterventionHandler {
	return &InterventionHandler{interventions: interventions}
}

// Create godoc
// POST /api/v1/students/:id/interventions
func (h *InterventionHandler) Create(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.CreateInterventionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var createdBy *int
	if claims := middleware.GetClaims(c); claims != nil {
		createdBy = &claims.UserID
	}

	iv, err := h.interventions.Create(c.Request.Context(), studentID, &req, createdBy)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, iv)
}

// List godoc
// GET /api/v1/students/:id/interventions
func (h *InterventionHandler) List(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	list, err := h.interventions.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		failWith(c, err)
		return
	}
	if list == nil {
		list = []model.Intervention{}
	}

	response.Success(c, http.StatusOK, gin.H{"interventions": list})
}

// Update godoc
// PATCH /api/v1/interventions/:id
func (h *InterventionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateInterventionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	iv, err := h.interventions.Update(c.Request.Context(), id, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, iv)
}
