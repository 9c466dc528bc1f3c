package model

import (
	"time"

	"github.com/kasu/retention-backend/internal/risk"
)

// Prediction is one stored risk assessment.
type Prediction struct {
	ID             int                `json:"id"`
	StudentID      int                `json:"student_id"`
	RiskScore      float64            `json:"risk_score"`
	Tier           risk.Tier          `json:"tier"`
	Provenance     risk.Provenance    `json:"provenance"`
	ModelVersion   string             `json:"model_version,omitempty"`
	FeaturesUsed   map[string]float64 `json:"features_used"`
	PredictionDate time.Time          `json:"prediction_date"`
}

// NewPrediction builds the record for an assessment of studentID.
func NewPrediction(studentID int, a risk.Assessment, at time.Time) *Prediction {
	return &Prediction{
		StudentID:      studentID,
		RiskScore:      a.Score.Value,
		Tier:           a.Strategy.Tier,
		Provenance:     a.Score.Provenance,
		ModelVersion:   a.Score.ModelVersion,
		FeaturesUsed:   a.Features.Map(),
		PredictionDate: at,
	}
}

// Strategy recomputes the intervention strategy for the stored score.
func (p *Prediction) Strategy() risk.Strategy {
	return risk.SelectStrategy(p.RiskScore)
}

// AssessmentResult is returned by the assessment endpoints.
type AssessmentResult struct {
	Student    Student            `json:"student"`
	Prediction Prediction         `json:"prediction"`
	Strategy   risk.Strategy      `json:"strategy"`
	Display    string             `json:"intervention_strategy"`
	Features   map[string]float64 `json:"features"`
	Degraded   bool               `json:"degraded"`
}

// NewAssessmentResult pairs a student with a stored prediction.
func NewAssessmentResult(s Student, p Prediction) *AssessmentResult {
	strategy := p.Strategy()
	return &AssessmentResult{
		Student:    s,
		Prediction: p,
		Strategy:   strategy,
		Display:    strategy.String(),
		Features:   p.FeaturesUsed,
		Degraded:   p.Provenance == risk.ProvenanceDegraded,
	}
}

// RecentPrediction is a dashboard row.
type RecentPrediction struct {
	PredictionID   int       `json:"prediction_id"`
	StudentID      int       `json:"student_id"`
	StudentName    string    `json:"student_name"`
	StudentCode    string    `json:"student_code"`
	RiskScore      float64   `json:"risk_score"`
	Tier           risk.Tier `json:"tier"`
	PredictionDate time.Time `json:"prediction_date"`
}
