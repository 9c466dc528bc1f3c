package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/risk"
)

// DashboardRepository handles dashboard and analytics aggregates.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
// High risk means the latest prediction is in the CRITICAL tier.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (totalStudents, highRisk, totalInterventions int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM latest_predictions WHERE tier = $1),
			(SELECT COUNT(*) FROM interventions)`,
		risk.TierCritical,
	).Scan(&totalStudents, &highRisk, &totalInterventions)
	return
}

// GetRecentPredictions retrieves the newest predictions across all students.
func (r *DashboardRepository) GetRecentPredictions(ctx context.Context, limit int) ([]model.RecentPrediction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, s.id, s.name, s.student_id, p.risk_score, p.tier, p.prediction_date
		 FROM predictions p
		 JOIN students s ON s.id = p.student_id
		 ORDER BY p.prediction_date DESC, p.id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RecentPrediction{}
	for rows.Next() {
		var rp model.RecentPrediction
		if err := rows.Scan(&rp.PredictionID, &rp.StudentID, &rp.StudentName, &rp.StudentCode,
			&rp.RiskScore, &rp.Tier, &rp.PredictionDate); err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// GetCourseAnalysis averages the latest risk per course.
func (r *DashboardRepository) GetCourseAnalysis(ctx context.Context) ([]model.CourseStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.course, ROUND(AVG(lp.risk_score)::numeric, 2)::float8, COUNT(*)
		 FROM latest_predictions lp
		 JOIN students s ON s.id = lp.student_id
		 GROUP BY s.course
		 ORDER BY s.course`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CourseStat{}
	for rows.Next() {
		var cs model.CourseStat
		if err := rows.Scan(&cs.Course, &cs.AverageRisk, &cs.StudentCount); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// CountAboveRisk counts students whose latest score exceeds threshold.
func (r *DashboardRepository) CountAboveRisk(ctx context.Context, threshold float64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM latest_predictions WHERE risk_score > $1`, threshold,
	).Scan(&n)
	return n, err
}
