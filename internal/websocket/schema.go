package websocket

import (
	"time"

	"github.com/kasu/retention-backend/internal/risk"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing      Action = "ping"
	ActionSetFilter Action = "set_filter"
)

// RequestEnvelope is the only client message shape.
type RequestEnvelope struct {
	Action  Action    `json:"action"`
	MinTier risk.Tier `json:"min_tier,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventAssessment Event = "assessment"
	EventFilter     Event = "filter_updated"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// AssessmentAlert is published on Redis for every stored assessment and
// forwarded to connected staff.
type AssessmentAlert struct {
	Event          Event           `json:"event"`
	StudentID      int             `json:"student_id"`
	StudentCode    string          `json:"student_code"`
	StudentName    string          `json:"student_name"`
	Course         string          `json:"course"`
	RiskScore      float64         `json:"risk_score"`
	Tier           risk.Tier       `json:"tier"`
	Guidance       string          `json:"guidance"`
	Provenance     risk.Provenance `json:"provenance"`
	PredictionDate time.Time       `json:"prediction_date"`
}

type FilterResponse struct {
	Event   Event     `json:"event"`
	MinTier risk.Tier `json:"min_tier"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
