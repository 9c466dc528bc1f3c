package service

import (
	"context"
	"strings"
	"time"

	"github.com/kasu/retention-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type interventionStore interface {
	Create(ctx context.Context, iv *model.Intervention) error
	GetByID(ctx context.Context, id int) (*model.Intervention, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Intervention, error)
	Update(ctx context.Context, iv *model.Intervention) error
}

type studentGetter interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
}

// InterventionService schedules and tracks interventions.
type InterventionService struct {
	interventions interventionStore
	students      studentGetter
	rdb           *redis.Client
	log           zerolog.Logger
	now           func() time.Time
}

// NewInterventionService creates a new InterventionService. New interventions
// invalidate the cached dashboards held in rdb.
func NewInterventionService(interventions interventionStore, students studentGetter, rdb *redis.Client, log zerolog.Logger) *InterventionService {
	return &InterventionService{
		interventions: interventions,
		students:      students,
		rdb:           rdb,
		log:           log.With().Str("component", "intervention_service").Logger(),
		now:           time.Now,
	}
}

// Create schedules an intervention for a student. Without a date it is
// scheduled now.
func (s *InterventionService) Create(ctx context.Context, studentPK int, req *model.CreateInterventionRequest, createdBy *int) (*model.Intervention, error) {
	if _, err := s.students.GetByID(ctx, studentPK); err != nil {
		return nil, err
	}

	scheduled := s.now()
	if req.ScheduledDate != nil {
		scheduled = *req.ScheduledDate
	}

	iv := &model.Intervention{
		StudentID:        studentPK,
		InterventionType: strings.TrimSpace(req.InterventionType),
		ScheduledDate:    scheduled,
		Notes:            req.Notes,
		Status:           model.InterventionScheduled,
		CreatedBy:        createdBy,
	}
	if err := s.interventions.Create(ctx, iv); err != nil {
		return nil, err
	}
	InvalidateDashboards(ctx, s.rdb, s.log)
	return iv, nil
}

// ListForStudent returns a student's interventions.
func (s *InterventionService) ListForStudent(ctx context.Context, studentPK int) ([]model.Intervention, error) {
	if _, err := s.students.GetByID(ctx, studentPK); err != nil {
		return nil, err
	}
	return s.interventions.ListByStudent(ctx, studentPK)
}

// Update changes status and notes. Completing stamps completed_date; moving
// out of completed clears it.
func (s *InterventionService) Update(ctx context.Context, id int, req *model.UpdateInterventionRequest) (*model.Intervention, error) {
	iv, err := s.interventions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Status == model.InterventionCompleted && iv.Status != model.InterventionCompleted:
		now := s.now()
		iv.CompletedDate = &now
	case req.Status != model.InterventionCompleted:
		iv.CompletedDate = nil
	}
	iv.Status = req.Status
	if req.Notes != nil {
		iv.Notes = *req.Notes
	}

	if err := s.interventions.Update(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}
