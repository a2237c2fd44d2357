package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-fees-api/internal/models"
)

// StudentFeeRepository reads student fee assignments.
type StudentFeeRepository struct {
	db *sqlx.DB
}

// NewStudentFeeRepository constructs the repository.
func NewStudentFeeRepository(db *sqlx.DB) *StudentFeeRepository {
	return &StudentFeeRepository{db: db}
}

// ListByStudent returns the student's assignments in assignment order. This
// order is the structure-level tie-break for allocation suggestions.
func (r *StudentFeeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentFeeAssignment, error) {
	const query = `SELECT id, student_id, fee_structure_id, school_id, total_amount, paid_amount, balance, due_date, created_at, updated_at
        FROM student_fees WHERE student_id = $1 ORDER BY created_at, id`
	var assignments []models.StudentFeeAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student fee assignments: %w", err)
	}
	return assignments, nil
}

// FindByID returns one assignment.
func (r *StudentFeeRepository) FindByID(ctx context.Context, id string) (*models.StudentFeeAssignment, error) {
	const query = `SELECT id, student_id, fee_structure_id, school_id, total_amount, paid_amount, balance, due_date, created_at, updated_at
        FROM student_fees WHERE id = $1`
	var assignment models.StudentFeeAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student fee assignment: %w", err)
	}
	return &assignment, nil
}

// ListOutstanding returns every student in the school carrying a positive
// balance on any assignment, with the summed outstanding amount and an
// overdue flag. Ordering is stable to keep future pagination consistent.
func (r *StudentFeeRepository) ListOutstanding(ctx context.Context, schoolID string) ([]models.OutstandingStudent, error) {
	const query = `SELECT s.id AS student_id, s.full_name, s.admission_no, s.batch_label,
        SUM(sf.balance) AS total_outstanding,
        BOOL_OR(sf.due_date < NOW()) AS is_overdue
        FROM student_fees sf
        JOIN students s ON s.id = sf.student_id
        WHERE sf.school_id = $1 AND sf.balance > 0
        GROUP BY s.id, s.full_name, s.admission_no, s.batch_label
        ORDER BY s.full_name, s.id`
	var students []models.OutstandingStudent
	if err := r.db.SelectContext(ctx, &students, query, schoolID); err != nil {
		return nil, fmt.Errorf("list outstanding students: %w", err)
	}
	return students, nil
}
