package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/risk"
	ws "github.com/kasu/retention-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assessmentFixture struct {
	svc         *AssessmentService
	students    *memStudents
	predictions *memPredictions
	rdb         *redis.Client
}

func newAssessmentFixture(t *testing.T, capability risk.Capability) *assessmentFixture {
	t.Helper()
	_, rdb := newRedis(t)
	students := newMemStudents()
	predictions := &memPredictions{}
	scorer := risk.NewScorer(zerolog.Nop(), risk.WithRandomSource(risk.NewRandomSource(42)))

	svc := NewAssessmentService(
		students,
		predictions,
		risk.NewAssessor(scorer),
		staticSource{capability: capability},
		NewAlertService(rdb),
		rdb,
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	return &assessmentFixture{svc: svc, students: students, predictions: predictions, rdb: rdb}
}

func johnDoe() *model.AssessRequest {
	gpa, attendance, failures := 3.2, 85.5, 1
	income, age := 450000.0, 20
	return &model.AssessRequest{
		Name:           "John Doe",
		StudentID:      "kasu001",
		Course:         "Computer Science",
		GPA:            &gpa,
		Attendance:     &attendance,
		Failures:       &failures,
		Residence:      "Urban",
		ParentalIncome: &income,
		Age:            &age,
	}
}

func TestAssess_StoresStudentAndPrediction(t *testing.T) {
	f := newAssessmentFixture(t, fixedProba{p: 0.8})

	res, err := f.svc.Assess(context.Background(), johnDoe())
	require.NoError(t, err)

	assert.Equal(t, "KASU001", res.Student.StudentID)
	assert.NotZero(t, res.Student.ID)
	assert.Equal(t, 0.8, res.Prediction.RiskScore)
	assert.Equal(t, risk.TierCritical, res.Prediction.Tier)
	assert.Equal(t, risk.ProvenanceModel, res.Prediction.Provenance)
	assert.Equal(t, "fixed-test", res.Prediction.ModelVersion)
	assert.Equal(t, risk.TierCritical, res.Strategy.Tier)
	assert.Equal(t, "CRITICAL: "+risk.GuidanceCritical, res.Display)
	assert.False(t, res.Degraded)
	assert.Len(t, res.Features, risk.FeatureCount)
	assert.Equal(t, 1, f.predictions.count())
}

func TestAssess_ReassessmentAddsPrediction(t *testing.T) {
	f := newAssessmentFixture(t, fixedProba{p: 0.3})
	ctx := context.Background()

	first, err := f.svc.Assess(ctx, johnDoe())
	require.NoError(t, err)

	req := johnDoe()
	gpa := 1.5
	req.GPA = &gpa
	second, err := f.svc.Assess(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.Student.ID, second.Student.ID)
	assert.Equal(t, 2, f.predictions.count())

	stored, err := f.students.GetByID(ctx, first.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, stored.GPA)

	history, err := f.svc.History(ctx, first.Student.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Prediction.ID, history[0].ID)
}

func TestAssess_MissingFieldStoresNothing(t *testing.T) {
	f := newAssessmentFixture(t, nil)
	req := johnDoe()
	req.Attendance = nil

	_, err := f.svc.Assess(context.Background(), req)

	var missing *risk.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "attendance", missing.Field)
	assert.Zero(t, f.predictions.count())
	all, _ := f.students.ListAll(context.Background())
	assert.Empty(t, all)
}

func TestAssess_DemoModeStaysInRange(t *testing.T) {
	f := newAssessmentFixture(t, nil)

	res, err := f.svc.Assess(context.Background(), johnDoe())
	require.NoError(t, err)

	assert.Equal(t, risk.ProvenanceDemo, res.Prediction.Provenance)
	assert.GreaterOrEqual(t, res.Prediction.RiskScore, 0.1)
	assert.LessOrEqual(t, res.Prediction.RiskScore, 0.9)
	assert.Equal(t, risk.TierFor(res.Prediction.RiskScore), res.Prediction.Tier)
}

func TestAssess_InvalidatesDashboardCache(t *testing.T) {
	f := newAssessmentFixture(t, fixedProba{p: 0.5})
	ctx := context.Background()
	for _, key := range config.CacheKey.DashboardKeys() {
		require.NoError(t, f.rdb.Set(ctx, key, "{}", time.Minute).Err())
	}

	_, err := f.svc.Assess(ctx, johnDoe())
	require.NoError(t, err)

	n, err := f.rdb.Exists(ctx, config.CacheKey.DashboardKeys()...).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAssess_PublishesAlert(t *testing.T) {
	f := newAssessmentFixture(t, fixedProba{p: 0.75})
	ctx := context.Background()

	sub := f.svc.alerts.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	_, err = f.svc.Assess(ctx, johnDoe())
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var alert ws.AssessmentAlert
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &alert))
		assert.Equal(t, ws.EventAssessment, alert.Event)
		assert.Equal(t, "KASU001", alert.StudentCode)
		assert.Equal(t, risk.TierCritical, alert.Tier)
		assert.Equal(t, risk.GuidanceCritical, alert.Guidance)
	case <-time.After(2 * time.Second):
		t.Fatal("no alert received")
	}
}

func TestLatestResult(t *testing.T) {
	f := newAssessmentFixture(t, fixedProba{p: 0.45})
	ctx := context.Background()

	res, err := f.svc.Assess(ctx, johnDoe())
	require.NoError(t, err)

	latest, err := f.svc.LatestResult(ctx, res.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, risk.TierModerate, latest.Strategy.Tier)
	assert.Equal(t, res.Prediction.ID, latest.Prediction.ID)

	bare := &model.Student{StudentID: "KASU404", Name: "No Score"}
	require.NoError(t, f.students.Upsert(ctx, bare))
	_, err = f.svc.LatestResult(ctx, bare.ID)
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRescoreAll_QueuesEveryStudent(t *testing.T) {
	f := newAssessmentFixture(t, fixedProba{p: 0.2})
	ctx := context.Background()

	_, err := f.svc.Assess(ctx, johnDoe())
	require.NoError(t, err)
	jane := johnDoe()
	jane.Name, jane.StudentID = "Jane Smith", "KASU002"
	_, err = f.svc.Assess(ctx, jane)
	require.NoError(t, err)

	queued, err := f.svc.RescoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	items, err := f.rdb.LRange(ctx, config.WorkerKey.PersistPredictionsQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 2)

	var p model.Prediction
	require.NoError(t, json.Unmarshal([]byte(items[0]), &p))
	assert.Equal(t, 0.2, p.RiskScore)
	assert.Equal(t, risk.TierLow, p.Tier)
	assert.NotZero(t, p.StudentID)
}

func TestRescoreAll_Empty(t *testing.T) {
	f := newAssessmentFixture(t, nil)
	queued, err := f.svc.RescoreAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
}
