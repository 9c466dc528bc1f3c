package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasu/retention-backend/internal/model"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidRole      = errors.New("invalid role")
)

type userStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	CreateForStudent(ctx context.Context, studentCode string, u *model.User) error
}

type unlinkedStudentLister interface {
	ListUnlinkedStudentIDs(ctx context.Context) ([]string, error)
}

// UserService handles accounts and self-registration.
type UserService struct {
	users    userStore
	students unlinkedStudentLister
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(users userStore, students unlinkedStudentLister, auth *AuthService) *UserService {
	return &UserService{users: users, students: students, auth: auth}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Authenticate checks username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates an account with the given role.
func (s *UserService) CreateUser(ctx context.Context, username, email, department string, role model.Role, password string) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		Department:   strings.TrimSpace(department),
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RegisterStudent creates a login for an existing, unlinked student record.
// The username is the upper-cased student ID.
func (s *UserService) RegisterStudent(ctx context.Context, req *model.StudentRegisterRequest) (*model.User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	code := model.NormalizeStudentID(req.StudentID)
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:     code,
		Email:        code + "@" + model.StudentEmailDomain,
		Role:         model.RoleStudent,
		PasswordHash: hash,
	}
	if err := s.users.CreateForStudent(ctx, code, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RegisterLecturer creates a lecturer account.
func (s *UserService) RegisterLecturer(ctx context.Context, req *model.LecturerRegisterRequest) (*model.User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = model.DefaultDepartment
	}
	return s.CreateUser(ctx, req.Username, req.Email, department, model.RoleLecturer, req.Password)
}

// RegistrableStudentIDs lists student IDs that can still self-register.
func (s *UserService) RegistrableStudentIDs(ctx context.Context) ([]string, error) {
	return s.students.ListUnlinkedStudentIDs(ctx)
}
