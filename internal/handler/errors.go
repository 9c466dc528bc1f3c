package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/kasu/retention-backend/internal/service"
)

// paramID parses a positive integer path parameter, answering 400 when it
// is malformed.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failWith maps service and repository errors onto the response envelope.
// Unrecognised errors are attached to the context for the logger and
// answered with 500.
func failWith(c *gin.Context, err error) {
	var missing *risk.MissingFieldError
	switch {
	case errors.As(err, &missing):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			missing.Field: missing.Error(),
		})
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoPrediction):
		response.Fail(c, http.StatusNotFound, response.ErrNoPrediction)
	case errors.Is(err, repository.ErrUsernameTaken):
		response.Fail(c, http.StatusConflict, response.ErrUsernameTaken)
	case errors.Is(err, repository.ErrStudentLinked):
		response.Fail(c, http.StatusConflict, response.ErrStudentLinked)
	case errors.Is(err, service.ErrPasswordMismatch):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrPasswordMismatch, map[string]string{
			"confirm_password": "passwords do not match",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
