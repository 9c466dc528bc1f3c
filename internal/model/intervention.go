package model

import "time"

// InterventionStatus tracks an intervention through its lifecycle.
type InterventionStatus string

const (
	InterventionScheduled  InterventionStatus = "scheduled"
	InterventionInProgress InterventionStatus = "in_progress"
	InterventionCompleted  InterventionStatus = "completed"
	InterventionCancelled  InterventionStatus = "cancelled"
)

// Intervention is an action scheduled for an at-risk student.
type Intervention struct {
	ID               int                `json:"id"`
	StudentID        int                `json:"student_id"`
	InterventionType string             `json:"intervention_type"`
	ScheduledDate    time.Time          `json:"scheduled_date"`
	CompletedDate    *time.Time         `json:"completed_date,omitempty"`
	Notes            string             `json:"notes"`
	Status           InterventionStatus `json:"status"`
	CreatedBy        *int               `json:"created_by,omitempty"`
	CreatedDate      time.Time          `json:"created_date"`
}

// CreateInterventionRequest is the payload for scheduling an intervention.
type CreateInterventionRequest struct {
	InterventionType string     `json:"intervention_type" binding:"required,min=2,max=100"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	Notes            string     `json:"notes" binding:"omitempty,max=2000"`
}

// UpdateInterventionRequest changes status and/or notes.
type UpdateInterventionRequest struct {
	Status InterventionStatus `json:"status" binding:"required,oneof=scheduled in_progress completed cancelled"`
	Notes  *string            `json:"notes" binding:"omitempty,max=2000"`
}
