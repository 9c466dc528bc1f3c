package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/metrics"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNoPrediction is returned when a student has never been assessed.
var ErrNoPrediction = errors.New("student has no prediction")

const predictionHistoryLimit = 20

type studentStore interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
	Upsert(ctx context.Context, s *model.Student) error
	ListAll(ctx context.Context) ([]model.Student, error)
}

type predictionStore interface {
	Create(ctx context.Context, p *model.Prediction) error
	LatestForStudent(ctx context.Context, studentID int) (*model.Prediction, error)
	ListForStudent(ctx context.Context, studentID, limit int) ([]model.Prediction, error)
}

// CapabilitySource yields the scoring capability for new assessments; nil
// means demo mode.
type CapabilitySource interface {
	Current() risk.Capability
}

// AssessmentService runs assessments and stores their results.
type AssessmentService struct {
	students    studentStore
	predictions predictionStore
	assessor    *risk.Assessor
	models      CapabilitySource
	alerts      *AlertService
	rdb         *redis.Client
	log         zerolog.Logger
	now         func() time.Time
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	students studentStore,
	predictions predictionStore,
	assessor *risk.Assessor,
	models CapabilitySource,
	alerts *AlertService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		students:    students,
		predictions: predictions,
		assessor:    assessor,
		models:      models,
		alerts:      alerts,
		rdb:         rdb,
		log:         log.With().Str("component", "assessment_service").Logger(),
		now:         time.Now,
	}
}

// Assess scores the submitted student, upserts the student record and stores
// a new prediction. A *risk.MissingFieldError is returned untouched.
func (s *AssessmentService) Assess(ctx context.Context, req *model.AssessRequest) (*model.AssessmentResult, error) {
	attrs := req.Attributes()

	a, err := s.assessor.Assess(ctx, attrs, s.models.Current())
	if err != nil {
		return nil, err
	}

	student := model.StudentFromAttributes(attrs)
	if err := s.students.Upsert(ctx, student); err != nil {
		return nil, fmt.Errorf("save student: %w", err)
	}

	prediction := model.NewPrediction(student.ID, a, s.now())
	if err := s.predictions.Create(ctx, prediction); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}

	metrics.ObserveTier(prediction.Tier)
	s.log.Info().
		Str("student_id", student.StudentID).
		Float64("risk_score", prediction.RiskScore).
		Str("tier", string(prediction.Tier)).
		Str("provenance", string(prediction.Provenance)).
		Msg("Assessment stored")

	InvalidateDashboards(ctx, s.rdb, s.log)
	if err := s.alerts.Publish(ctx, NewAssessmentAlert(student, prediction)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish assessment alert")
	}

	return model.NewAssessmentResult(*student, *prediction), nil
}

// LatestResult returns the newest stored assessment for a student.
func (s *AssessmentService) LatestResult(ctx context.Context, studentPK int) (*model.AssessmentResult, error) {
	student, err := s.students.GetByID(ctx, studentPK)
	if err != nil {
		return nil, err
	}

	p, err := s.predictions.LatestForStudent(ctx, student.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPrediction
		}
		return nil, err
	}
	return model.NewAssessmentResult(*student, *p), nil
}

// History returns a student's most recent predictions, newest first.
func (s *AssessmentService) History(ctx context.Context, studentPK int) ([]model.Prediction, error) {
	return s.predictions.ListForStudent(ctx, studentPK, predictionHistoryLimit)
}

// RescoreAll re-assesses every stored student with the current capability and
// queues the results for the prediction worker. It returns the number queued.
func (s *AssessmentService) RescoreAll(ctx context.Context) (int, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list students: %w", err)
	}
	if len(students) == 0 {
		return 0, nil
	}

	capability := s.models.Current()
	now := s.now()
	pipe := s.rdb.Pipeline()
	queued := 0

	for i := range students {
		st := &students[i]
		a, err := s.assessor.Assess(ctx, st.Attributes(), capability)
		if err != nil {
			// Stored records always carry the required fields.
			s.log.Error().Err(err).Str("student_id", st.StudentID).Msg("Skipping student during rescore")
			continue
		}

		raw, err := json.Marshal(model.NewPrediction(st.ID, a, now))
		if err != nil {
			return queued, err
		}
		pipe.RPush(ctx, config.WorkerKey.PersistPredictionsQueue, raw)
		metrics.ObserveTier(a.Strategy.Tier)
		queued++
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("queue predictions: %w", err)
	}

	s.log.Info().Int("queued", queued).Msg("Rescore queued")
	return queued, nil
}
