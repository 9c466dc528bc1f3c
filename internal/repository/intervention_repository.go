package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kasu/retention-backend/internal/model"
)

// InterventionRepository handles intervention data access.
type InterventionRepository struct {
	pool *pgxpool.Pool
}

// NewInterventionRepository creates a new InterventionRepository.
func NewInterventionRepository(pool *pgxpool.Pool) *InterventionRepository {
	return &InterventionRepository{pool: pool}
}

const interventionColumns = `id, student_id, intervention_type, scheduled_date, completed_date, notes, status, created_by, created_date`

func scanIntervention(row scanner, iv *model.Intervention) error {
	return row.Scan(&iv.ID, &iv.StudentID, &iv.InterventionType, &iv.ScheduledDate, &iv.CompletedDate,
		&iv.Notes, &iv.Status, &iv.CreatedBy, &iv.CreatedDate)
}

// Create inserts an intervention.
func (r *InterventionRepository) Create(ctx context.Context, iv *model.Intervention) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO interventions (student_id, intervention_type, scheduled_date, notes, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_date`,
		iv.StudentID, iv.InterventionType, iv.ScheduledDate, iv.Notes, iv.Status, iv.CreatedBy,
	).Scan(&iv.ID, &iv.CreatedDate)
}

// GetByID retrieves an intervention.
func (r *InterventionRepository) GetByID(ctx context.Context, id int) (*model.Intervention, error) {
	iv := &model.Intervention{}
	row := r.pool.QueryRow(ctx, `SELECT `+interventionColumns+` FROM interventions WHERE id = $1`, id)
	if err := scanIntervention(row, iv); err != nil {
		return nil, notFound(err)
	}
	return iv, nil
}

// ListByStudent returns a student's interventions, soonest scheduled first.
func (r *InterventionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Intervention, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+interventionColumns+` FROM interventions
		 WHERE student_id = $1
		 ORDER BY scheduled_date, id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Intervention{}
	for rows.Next() {
		var iv model.Intervention
		if err := scanIntervention(rows, &iv); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Update writes status, notes and completed_date.
func (r *InterventionRepository) Update(ctx context.Context, iv *model.Intervention) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE interventions SET status = $1, notes = $2, completed_date = $3 WHERE id = $4`,
		iv.Status, iv.Notes, iv.CompletedDate, iv.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
