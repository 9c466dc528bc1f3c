package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/middleware"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/validator"
)

type accountService interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	RegisterStudent(ctx context.Context, req *model.StudentRegisterRequest) (*model.User, error)
	RegisterLecturer(ctx context.Context, req *model.LecturerRegisterRequest) (*model.User, error)
	RegistrableStudentIDs(ctx context.Context) ([]string, error)
}

type sessionIssuer interface {
	GenerateToken(ctx context.Context, u *model.User) (string, error)
	ResetSession(ctx context.Context, userID int) error
}

// AuthHandler handles authentication and self-registration endpoints.
type AuthHandler struct {
	users accountService
	auth  sessionIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users accountService, auth sessionIssuer) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

// Login godoc
// POST /api/v1/auth/login
// Validates username + password and returns a JWT. A new login replaces the
// user's previous session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.auth.GenerateToken(c.Request.Context(), user)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token, User: *user})
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.auth.ResetSession(c.Request.Context(), claims.UserID); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// RegisterStudent godoc
// POST /api/v1/auth/register/student
// Links a login to an existing student record that has none yet.
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req model.StudentRegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.users.RegisterStudent(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusBadRequest, response.ErrStudentIDUnknown)
			return
		}
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// RegisterLecturer godoc
// POST /api/v1/auth/register/lecturer
func (h *AuthHandler) RegisterLecturer(c *gin.Context) {
	var req model.LecturerRegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.users.RegisterLecturer(c.Request.Context(), &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// RegistrableStudentIDs godoc
// GET /api/v1/auth/register/student-ids
func (h *AuthHandler) RegistrableStudentIDs(c *gin.Context) {
	ids, err := h.users.RegistrableStudentIDs(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	response.Success(c, http.StatusOK, gin.H{"student_ids": ids})
}
