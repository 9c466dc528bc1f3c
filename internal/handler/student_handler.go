package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/service"
	"github.com/kasu/retention-backend/internal/validator"
)

type studentService interface {
	ListStudents(ctx context.Context, minRisk *float64, page, perPage int) ([]model.StudentWithRisk, *response.Pagination, error)
	GetDetail(ctx context.Context, id int) (*service.StudentDetail, error)
	Dashboard(ctx context.Context, userID int) (*model.StudentDashboard, error)
}

// StudentListQuery is the query string of the student list.
type StudentListQuery struct {
	Page    int      `form:"page" binding:"omitempty,min=1"`
	PerPage int      `form:"per_page" binding:"omitempty,min=1,max=100"`
	MinRisk *float64 `form:"min_risk" binding:"omitempty,gte=0,lte=1"`
}

// StudentHandler serves staff-facing student records.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// GET /api/v1/students?page=1&per_page=10&min_risk=0.5
func (h *StudentHandler) List(c *gin.Context) {
	var q StudentListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, pagination, err := h.students.ListStudents(c.Request.Context(), q.MinRisk, q.Page, q.PerPage)
	if err != nil {
		failWith(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// Get godoc
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.students.GetDetail(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}
