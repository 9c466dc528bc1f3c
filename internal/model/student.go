package model

import (
	"strings"
	"time"

	"github.com/kasu/retention-backend/internal/risk"
)

// Student is an assessed student record. Scoring attributes are stored as
// captured at the latest assessment.
type Student struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	StudentID      string    `json:"student_id"`
	Course         string    `json:"course"`
	GPA            float64   `json:"gpa"`
	Attendance     float64   `json:"attendance"`
	Failures       int       `json:"failures"`
	Residence      string    `json:"residence"`
	ParentalIncome float64   `json:"parental_income"`
	Age            int       `json:"age"`
	UserID         *int      `json:"user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Attributes converts the stored record back into scoring input.
func (s *Student) Attributes() risk.StudentAttributes {
	gpa, attendance, failures := s.GPA, s.Attendance, s.Failures
	income, age := s.ParentalIncome, s.Age
	return risk.StudentAttributes{
		Name:           s.Name,
		StudentID:      s.StudentID,
		Course:         s.Course,
		GPA:            &gpa,
		Attendance:     &attendance,
		Failures:       &failures,
		Residence:      s.Residence,
		ParentalIncome: &income,
		Age:            &age,
	}
}

// StudentWithRisk is a list row with the student's latest prediction.
type StudentWithRisk struct {
	Student
	LatestRisk     *float64   `json:"latest_risk"`
	LatestTier     *risk.Tier `json:"latest_tier"`
	LastAssessedAt *time.Time `json:"last_assessed_at"`
}

// NormalizeStudentID trims and upper-cases a student ID.
func NormalizeStudentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// AssessRequest is the assessment form. Scoring fields are pointers so that
// the encoder can name a missing one.
type AssessRequest struct {
	Name           string   `json:"name" binding:"required,min=2,max=100"`
	StudentID      string   `json:"student_id" binding:"required,min=3,max=20,student_code"`
	Course         string   `json:"course" binding:"omitempty,max=100"`
	GPA            *float64 `json:"gpa" binding:"omitempty,gte=0,lte=5"`
	Attendance     *float64 `json:"attendance" binding:"omitempty,gte=0,lte=100"`
	Failures       *int     `json:"failures" binding:"omitempty,gte=0,lte=50"`
	Residence      string   `json:"residence" binding:"omitempty,oneof=Urban Rural"`
	ParentalIncome *float64 `json:"parental_income" binding:"omitempty,gte=0"`
	Age            *int     `json:"age" binding:"omitempty,gte=10,lte=100"`
}

// Attributes maps the request onto scoring input.
func (r *AssessRequest) Attributes() risk.StudentAttributes {
	return risk.StudentAttributes{
		Name:           strings.TrimSpace(r.Name),
		StudentID:      NormalizeStudentID(r.StudentID),
		Course:         strings.TrimSpace(r.Course),
		GPA:            r.GPA,
		Attendance:     r.Attendance,
		Failures:       r.Failures,
		Residence:      strings.TrimSpace(r.Residence),
		ParentalIncome: r.ParentalIncome,
		Age:            r.Age,
	}
}

// StudentFromAttributes builds the record persisted for an assessment.
// Attributes must already have passed risk.Encode.
func StudentFromAttributes(a risk.StudentAttributes) *Student {
	a = a.WithDefaults()
	return &Student{
		Name:           a.Name,
		StudentID:      a.StudentID,
		Course:         a.Course,
		GPA:            *a.GPA,
		Attendance:     *a.Attendance,
		Failures:       *a.Failures,
		Residence:      a.Residence,
		ParentalIncome: *a.ParentalIncome,
		Age:            *a.Age,
	}
}
