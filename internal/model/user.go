package model

import "time"

// Role is a user's access level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAdvisor  Role = "advisor"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// StaffRoles may run and review assessments.
var StaffRoles = []Role{RoleAdmin, RoleAdvisor, RoleLecturer}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAdvisor, RoleLecturer, RoleStudent:
		return true
	}
	return false
}

// IsStaff reports whether r is a non-student role.
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleStudent
}

// DefaultDepartment is assigned to lecturers that register without one.
const DefaultDepartment = "General"

// StudentEmailDomain is appended to a student ID to form the student's email.
const StudentEmailDomain = "kasu.edu.ng"

// User is an account that can log in.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Department   string    `json:"department,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=80"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// StudentRegisterRequest links a login to an existing student record.
type StudentRegisterRequest struct {
	StudentID       string `json:"student_id" binding:"required,min=3,max=20,student_code"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// LecturerRegisterRequest creates a lecturer account.
type LecturerRegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=80"`
	Email           string `json:"email" binding:"omitempty,email,max=120"`
	Department      string `json:"department" binding:"omitempty,max=100"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}
