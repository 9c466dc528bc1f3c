package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kasu/retention-backend/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `s.id, s.name, s.student_id, s.course, s.gpa, s.attendance, s.failures,
	s.residence, s.parental_income, s.age, s.user_id, s.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner, s *model.Student, extra ...any) error {
	dest := []any{&s.ID, &s.Name, &s.StudentID, &s.Course, &s.GPA, &s.Attendance, &s.Failures,
		&s.Residence, &s.ParentalIncome, &s.Age, &s.UserID, &s.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

// GetByID retrieves a student by primary key.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.id = $1`, id)
	if err := scanStudent(row, s); err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// GetByUserID retrieves the student linked to a login.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID int) (*model.Student, error) {
	s := &model.Student{}
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.user_id = $1`, userID)
	if err := scanStudent(row, s); err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Upsert inserts a student or refreshes the attributes of an existing one with
// the same student ID. The login link is never touched.
func (r *StudentRepository) Upsert(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, student_id, course, gpa, attendance, failures, residence, parental_income, age)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (student_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     course = EXCLUDED.course,
		     gpa = EXCLUDED.gpa,
		     attendance = EXCLUDED.attendance,
		     failures = EXCLUDED.failures,
		     residence = EXCLUDED.residence,
		     parental_income = EXCLUDED.parental_income,
		     age = EXCLUDED.age
		 RETURNING id, user_id, created_at`,
		s.Name, s.StudentID, s.Course, s.GPA, s.Attendance, s.Failures, s.Residence, s.ParentalIncome, s.Age,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt)
}

// ListWithRisk retrieves students with their latest prediction, ordered by
// name. minRisk filters on the latest score when set.
func (r *StudentRepository) ListWithRisk(ctx context.Context, minRisk *float64, limit, offset int) ([]model.StudentWithRisk, int, error) {
	where := ``
	var args []any
	if minRisk != nil {
		where = ` WHERE lp.risk_score > $1`
		args = append(args, *minRisk)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM students s LEFT JOIN latest_predictions lp ON lp.student_id = s.id` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argIdx := len(args) + 1
	query := `SELECT ` + studentColumns + `, lp.risk_score, lp.tier, lp.prediction_date
		FROM students s
		LEFT JOIN latest_predictions lp ON lp.student_id = s.id` + where +
		` ORDER BY s.name, s.id LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.StudentWithRisk
	for rows.Next() {
		var s model.StudentWithRisk
		if err := scanStudent(rows, &s.Student, &s.LatestRisk, &s.LatestTier, &s.LastAssessedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// ListAll retrieves every student, used for bulk re-scoring.
func (r *StudentRepository) ListAll(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students s ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// ListUnlinkedStudentIDs returns student IDs that have no login yet.
func (r *StudentRepository) ListUnlinkedStudentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT student_id FROM students WHERE user_id IS NULL ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
