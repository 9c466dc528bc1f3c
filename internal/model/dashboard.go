package model

import "github.com/kasu/retention-backend/internal/risk"

// HighRiskThreshold separates students flagged on the lecturer dashboard.
const HighRiskThreshold = 0.5

// DashboardSummary is the admin/advisor landing payload.
type DashboardSummary struct {
	TotalStudents      int                `json:"total_students"`
	HighRiskStudents   int                `json:"high_risk_students"`
	TotalInterventions int                `json:"total_interventions"`
	RecentPredictions  []RecentPrediction `json:"recent_predictions"`
}

// CourseStat aggregates latest risk per course.
type CourseStat struct {
	Course       string  `json:"course"`
	AverageRisk  float64 `json:"average_risk"`
	StudentCount int     `json:"student_count"`
}

// Analytics is the analytics page payload.
type Analytics struct {
	RiskDistribution map[risk.Tier]int `json:"risk_distribution"`
	CourseAnalysis   []CourseStat      `json:"course_analysis"`
}

// LecturerDashboard is the lecturer landing payload.
type LecturerDashboard struct {
	TotalStudents    int               `json:"total_students"`
	HighRiskStudents int               `json:"high_risk_students"`
	AtRisk           []StudentWithRisk `json:"at_risk"`
}

// StudentDashboard is what a student sees about themselves.
type StudentDashboard struct {
	Student       Student           `json:"student"`
	Latest        *AssessmentResult `json:"latest_assessment"`
	Interventions []Intervention    `json:"interventions"`
}
