package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*model.DashboardSummary, error)
	Analytics(ctx context.Context) (*model.Analytics, error)
	Lecturer(ctx context.Context) (*model.LecturerDashboard, error)
}

// DashboardHandler handles dashboard and analytics endpoints.
type DashboardHandler struct {
	dashboardService dashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// GET /api/v1/dashboard
// Returns totals, the CRITICAL count and the five newest predictions.
func (h *DashboardHandler) Summary(c *gin.Context) {
	data, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}

// Analytics godoc
// GET /api/v1/analytics
func (h *DashboardHandler) Analytics(c *gin.Context) {
	data, err := h.dashboardService.Analytics(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}

// Lecturer godoc
// GET /api/v1/dashboard/lecturer
func (h *DashboardHandler) Lecturer(c *gin.Context) {
	data, err := h.dashboardService.Lecturer(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
