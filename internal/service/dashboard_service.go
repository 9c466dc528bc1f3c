package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	recentPredictionsLimit = 5
	lecturerAtRiskLimit    = 50
)

type dashboardStore interface {
	GetSummaryCounts(ctx context.Context) (totalStudents, highRisk, totalInterventions int, err error)
	GetRecentPredictions(ctx context.Context, limit int) ([]model.RecentPrediction, error)
	GetCourseAnalysis(ctx context.Context) ([]model.CourseStat, error)
	CountAboveRisk(ctx context.Context, threshold float64) (int, error)
}

type tierCounter interface {
	CountLatestByTier(ctx context.Context) (map[risk.Tier]int, error)
}

type riskLister interface {
	ListWithRisk(ctx context.Context, minRisk *float64, limit, offset int) ([]model.StudentWithRisk, int, error)
}

// DashboardService builds dashboard and analytics payloads behind a short
// Redis cache.
type DashboardService struct {
	repo        dashboardStore
	predictions tierCounter
	students    riskLister
	rdb         *redis.Client
	ttl         time.Duration
	log         zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	repo dashboardStore,
	predictions tierCounter,
	students riskLister,
	rdb *redis.Client,
	ttl time.Duration,
	log zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		repo:        repo,
		predictions: predictions,
		students:    students,
		rdb:         rdb,
		ttl:         ttl,
		log:         log.With().Str("component", "dashboard_service").Logger(),
	}
}

// Summary returns totals, the CRITICAL count and the newest predictions.
func (s *DashboardService) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	return cached(ctx, s, config.CacheKey.DashboardKey(), func(ctx context.Context) (*model.DashboardSummary, error) {
		total, high, interventions, err := s.repo.GetSummaryCounts(ctx)
		if err != nil {
			return nil, err
		}
		recent, err := s.repo.GetRecentPredictions(ctx, recentPredictionsLimit)
		if err != nil {
			return nil, err
		}
		return &model.DashboardSummary{
			TotalStudents:      total,
			HighRiskStudents:   high,
			TotalInterventions: interventions,
			RecentPredictions:  recent,
		}, nil
	})
}

// Analytics returns the tier distribution and per-course averages over each
// student's latest prediction.
func (s *DashboardService) Analytics(ctx context.Context) (*model.Analytics, error) {
	return cached(ctx, s, config.CacheKey.AnalyticsKey(), func(ctx context.Context) (*model.Analytics, error) {
		dist, err := s.predictions.CountLatestByTier(ctx)
		if err != nil {
			return nil, err
		}
		courses, err := s.repo.GetCourseAnalysis(ctx)
		if err != nil {
			return nil, err
		}
		return &model.Analytics{RiskDistribution: dist, CourseAnalysis: courses}, nil
	})
}

// Lecturer returns the lecturer view: totals and students above
// model.HighRiskThreshold.
func (s *DashboardService) Lecturer(ctx context.Context) (*model.LecturerDashboard, error) {
	return cached(ctx, s, config.CacheKey.LecturerDashboardKey(), func(ctx context.Context) (*model.LecturerDashboard, error) {
		threshold := model.HighRiskThreshold
		atRisk, high, err := s.students.ListWithRisk(ctx, &threshold, lecturerAtRiskLimit, 0)
		if err != nil {
			return nil, err
		}
		total, _, _, err := s.repo.GetSummaryCounts(ctx)
		if err != nil {
			return nil, err
		}
		if atRisk == nil {
			atRisk = []model.StudentWithRisk{}
		}
		return &model.LecturerDashboard{TotalStudents: total, HighRiskStudents: high, AtRisk: atRisk}, nil
	})
}

// InvalidateDashboards drops every cached dashboard payload. Failures are
// logged; the cache expires on its own.
func InvalidateDashboards(ctx context.Context, rdb *redis.Client, log zerolog.Logger) {
	if err := rdb.Del(ctx, config.CacheKey.DashboardKeys()...).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate dashboard cache")
	}
}

// cached serves key from Redis or stores the loader's result. Redis errors
// fall through to the loader.
func cached[T any](ctx context.Context, s *DashboardService, key string, load func(context.Context) (*T, error)) (*T, error) {
	if s.ttl > 0 {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var out T
			if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil {
				return &out, nil
			}
			s.log.Warn().Str("key", key).Msg("Discarding unreadable cache entry")
		case !errors.Is(err, redis.Nil):
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
			}
		}
	}
	return out, nil
}
