package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-fees-api/internal/models"
)

// FeeRepository reads fee structures and their components.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// FindStructures returns the fee structures for the given IDs preserving
// the order of the input slice.
func (r *FeeRepository) FindStructures(ctx context.Context, ids []string) ([]models.FeeStructure, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, school_id, name, academic_year, total_amount, created_at
        FROM fee_structures WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var structures []models.FeeStructure
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, fmt.Errorf("find fee structures: %w", err)
	}
	byID := make(map[string]models.FeeStructure, len(structures))
	for _, s := range structures {
		byID[s.ID] = s
	}
	ordered := make([]models.FeeStructure, 0, len(structures))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

// ListComponentsByStructures returns the components for the given
// structures in their stable in-structure order.
func (r *FeeRepository) ListComponentsByStructures(ctx context.Context, structureIDs []string) ([]models.FeeComponent, error) {
	if len(structureIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(structureIDs))
	args := make([]interface{}, len(structureIDs))
	for i, id := range structureIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, fee_structure_id, name, amount, due_date, recurrence, priority, position, created_at
        FROM fee_components WHERE fee_structure_id IN (%s) ORDER BY fee_structure_id, position, created_at`,
		strings.Join(placeholders, ","))
	var components []models.FeeComponent
	if err := r.db.SelectContext(ctx, &components, query, args...); err != nil {
		return nil, fmt.Errorf("list fee components: %w", err)
	}
	return components, nil
}

// AllocatedTotalsByStudent returns, per component, the sum of allocations
// made through the student's payments.
func (r *FeeRepository) AllocatedTotalsByStudent(ctx context.Context, studentID string) (map[string]decimal.Decimal, error) {
	const query = `SELECT a.fee_component_id, COALESCE(SUM(a.allocated_amount), 0) AS total
        FROM fee_payment_allocations a
        JOIN fee_payments p ON p.id = a.payment_id
        JOIN student_fees sf ON sf.id = p.student_fee_assignment_id
        WHERE sf.student_id = $1
        GROUP BY a.fee_component_id`
	rows, err := r.db.QueryxContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("sum component allocations: %w", err)
	}
	defer rows.Close()
	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var componentID string
		var total decimal.Decimal
		if err := rows.Scan(&componentID, &total); err != nil {
			return nil, fmt.Errorf("scan component total: %w", err)
		}
		totals[componentID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate component totals: %w", err)
	}
	return totals, nil
}
