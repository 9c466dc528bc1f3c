package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/risk"
)

// PredictionRepository handles prediction data access.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

const predictionColumns = `id, student_id, risk_score, tier, provenance, model_version, features_used, prediction_date`

func scanPrediction(row scanner, p *model.Prediction) error {
	return row.Scan(&p.ID, &p.StudentID, &p.RiskScore, &p.Tier, &p.Provenance, &p.ModelVersion, &p.FeaturesUsed, &p.PredictionDate)
}

// Create inserts a prediction.
func (r *PredictionRepository) Create(ctx context.Context, p *model.Prediction) error {
	if p.PredictionDate.IsZero() {
		p.PredictionDate = time.Now()
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO predictions (student_id, risk_score, tier, provenance, model_version, features_used, prediction_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.StudentID, p.RiskScore, p.Tier, p.Provenance, p.ModelVersion, p.FeaturesUsed, p.PredictionDate,
	).Scan(&p.ID)
}

// BulkCreate inserts many predictions with a single UNNEST statement.
func (r *PredictionRepository) BulkCreate(ctx context.Context, batch []*model.Prediction) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	studentIDs := make([]int, n)
	scores := make([]float64, n)
	tiers := make([]string, n)
	provenances := make([]string, n)
	versions := make([]string, n)
	features := make([]string, n)
	dates := make([]time.Time, n)

	for i, p := range batch {
		raw, err := json.Marshal(p.FeaturesUsed)
		if err != nil {
			return fmt.Errorf("encode features for student %d: %w", p.StudentID, err)
		}
		studentIDs[i] = p.StudentID
		scores[i] = p.RiskScore
		tiers[i] = string(p.Tier)
		provenances[i] = string(p.Provenance)
		versions[i] = p.ModelVersion
		features[i] = string(raw)
		dates[i] = p.PredictionDate
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO predictions (student_id, risk_score, tier, provenance, model_version, features_used, prediction_date)
		SELECT u.student_id, u.risk_score, u.tier, u.provenance, u.model_version, u.features::jsonb, u.prediction_date
		FROM UNNEST(
			$1::int[],
			$2::float8[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::text[],
			$7::timestamptz[]
		) AS u (student_id, risk_score, tier, provenance, model_version, features, prediction_date)`,
		studentIDs, scores, tiers, provenances, versions, features, dates,
	)
	return err
}

// LatestForStudent returns the newest prediction for a student.
func (r *PredictionRepository) LatestForStudent(ctx context.Context, studentID int) (*model.Prediction, error) {
	p := &model.Prediction{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		 WHERE student_id = $1
		 ORDER BY prediction_date DESC, id DESC
		 LIMIT 1`, studentID)
	if err := scanPrediction(row, p); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListForStudent returns a student's prediction history, newest first.
func (r *PredictionRepository) ListForStudent(ctx context.Context, studentID, limit int) ([]model.Prediction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		 WHERE student_id = $1
		 ORDER BY prediction_date DESC, id DESC
		 LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Prediction{}
	for rows.Next() {
		var p model.Prediction
		if err := scanPrediction(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountLatestByTier counts students by the tier of their latest prediction.
func (r *PredictionRepository) CountLatestByTier(ctx context.Context) (map[risk.Tier]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT tier, COUNT(*) FROM latest_predictions GROUP BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[risk.Tier]int, len(risk.Tiers))
	for _, t := range risk.Tiers {
		counts[t] = 0
	}
	for rows.Next() {
		var tier risk.Tier
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		counts[tier] = count
	}
	return counts, rows.Err()
}
