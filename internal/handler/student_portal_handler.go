package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/middleware"
	"github.com/kasu/retention-backend/internal/response"
)

// StudentPortalHandler handles student-facing endpoints.
type StudentPortalHandler struct {
	students studentService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(students studentService) *StudentPortalHandler {
	return &StudentPortalHandler{students: students}
}

// Dashboard godoc
// GET /api/v1/student/dashboard
// Returns the logged-in student's record, latest assessment and interventions.
func (h *StudentPortalHandler) Dashboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	dashboard, err := h.students.Dashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}
