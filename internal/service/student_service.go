package service

import (
	"context"
	"errors"

	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/response"
)

type studentReader interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
	GetByUserID(ctx context.Context, userID int) (*model.Student, error)
	ListWithRisk(ctx context.Context, minRisk *float64, limit, offset int) ([]model.StudentWithRisk, int, error)
}

type latestPredictionReader interface {
	LatestForStudent(ctx context.Context, studentID int) (*model.Prediction, error)
	ListForStudent(ctx context.Context, studentID, limit int) ([]model.Prediction, error)
}

type interventionLister interface {
	ListByStudent(ctx context.Context, studentID int) ([]model.Intervention, error)
}

// StudentDetail is a student with prediction and intervention history.
type StudentDetail struct {
	Student       model.Student           `json:"student"`
	Latest        *model.AssessmentResult `json:"latest_assessment"`
	Predictions   []model.Prediction      `json:"predictions"`
	Interventions []model.Intervention    `json:"interventions"`
}

// StudentService handles student listing and profile views.
type StudentService struct {
	students      studentReader
	predictions   latestPredictionReader
	interventions interventionLister
}

// NewStudentService creates a new StudentService.
func NewStudentService(students studentReader, predictions latestPredictionReader, interventions interventionLister) *StudentService {
	return &StudentService{students: students, predictions: predictions, interventions: interventions}
}

// ListStudents retrieves students with their latest risk, paginated.
func (s *StudentService) ListStudents(ctx context.Context, minRisk *float64, page, perPage int) ([]model.StudentWithRisk, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	students, total, err := s.students.ListWithRisk(ctx, minRisk, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if students == nil {
		students = []model.StudentWithRisk{}
	}

	return students, response.NewPagination(page, perPage, total), nil
}

// GetDetail returns a student with history.
func (s *StudentService) GetDetail(ctx context.Context, id int) (*StudentDetail, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, student)
}

// Dashboard returns what a logged-in student sees about themselves.
func (s *StudentService) Dashboard(ctx context.Context, userID int) (*model.StudentDashboard, error) {
	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, err := s.detail(ctx, student)
	if err != nil {
		return nil, err
	}
	return &model.StudentDashboard{
		Student:       d.Student,
		Latest:        d.Latest,
		Interventions: d.Interventions,
	}, nil
}

func (s *StudentService) detail(ctx context.Context, student *model.Student) (*StudentDetail, error) {
	d := &StudentDetail{Student: *student}

	latest, err := s.predictions.LatestForStudent(ctx, student.ID)
	switch {
	case err == nil:
		d.Latest = model.NewAssessmentResult(*student, *latest)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	if d.Predictions, err = s.predictions.ListForStudent(ctx, student.ID, predictionHistoryLimit); err != nil {
		return nil, err
	}
	if d.Interventions, err = s.interventions.ListByStudent(ctx, student.ID); err != nil {
		return nil, err
	}
	return d, nil
}
