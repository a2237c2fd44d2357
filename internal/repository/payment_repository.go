package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-fees-api/internal/models"
)

// Sentinel errors surfaced by RecordPayment. The service layer maps them to
// user-facing typed errors.
var (
	// ErrStaleBalance means the assignment or a component no longer has
	// sufficient balance at commit time.
	ErrStaleBalance = errors.New("balance changed since validation")
	// ErrUnknownComponent means an allocation references a component that
	// does not belong to the assignment's fee structure.
	ErrUnknownComponent = errors.New("unknown fee component")
)

// PaymentRepository persists payments and their allocations.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// RecordPayment commits a payment, its allocations and the assignment
// balance update as one transaction. The student_fees row is locked for the
// duration so two concurrent payments against the same assignment cannot
// both allocate from the same stale balance. Component balances are
// re-read under the lock, never taken from a caller-supplied snapshot.
func (r *PaymentRepository) RecordPayment(ctx context.Context, payment *models.Payment, allocations []models.PaymentAllocation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record payment: %w", err)
	}

	var assignment models.StudentFeeAssignment
	const lockQuery = `SELECT id, student_id, fee_structure_id, school_id, total_amount, paid_amount, balance, due_date, created_at, updated_at
        FROM student_fees WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &assignment, lockQuery, payment.StudentFeeAssignmentID); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock student fee assignment: %w", err)
	}

	if assignment.Balance.LessThan(payment.Amount) {
		tx.Rollback() //nolint:errcheck
		return ErrStaleBalance
	}

	// Amounts are summed per component before the balance comparison, so a
	// payload repeating one component cannot slip past the per-line check.
	perComponent := make(map[string]decimal.Decimal, len(allocations))
	componentOrder := make([]string, 0, len(allocations))
	for _, alloc := range allocations {
		if _, seen := perComponent[alloc.FeeComponentID]; !seen {
			componentOrder = append(componentOrder, alloc.FeeComponentID)
		}
		perComponent[alloc.FeeComponentID] = perComponent[alloc.FeeComponentID].Add(alloc.AllocatedAmount)
	}

	const componentBalanceQuery = `SELECT c.amount - COALESCE((
            SELECT SUM(a.allocated_amount) FROM fee_payment_allocations a
            JOIN fee_payments p ON p.id = a.payment_id
            WHERE a.fee_component_id = c.id AND p.student_fee_assignment_id = $2
        ), 0) AS balance
        FROM fee_components c WHERE c.id = $1 AND c.fee_structure_id = $3`
	for _, componentID := range componentOrder {
		var balance decimal.Decimal
		if err := tx.GetContext(ctx, &balance, componentBalanceQuery, componentID, assignment.ID, assignment.FeeStructureID); err != nil {
			tx.Rollback() //nolint:errcheck
			if err == sql.ErrNoRows {
				return ErrUnknownComponent
			}
			return fmt.Errorf("read component balance: %w", err)
		}
		if balance.LessThan(perComponent[componentID]) {
			tx.Rollback() //nolint:errcheck
			return ErrStaleBalance
		}
	}

	now := time.Now().UTC()
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = now

	const insertPayment = `INSERT INTO fee_payments (id, student_fee_assignment_id, school_id, amount, mode, date, receipt_number, created_by, notes, created_at)
        VALUES (:id, :student_fee_assignment_id, :school_id, :amount, :mode, :date, :receipt_number, :created_by, :notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertPayment, payment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert payment: %w", err)
	}

	const insertAllocation = `INSERT INTO fee_payment_allocations (id, payment_id, fee_component_id, allocated_amount, created_at)
        VALUES (:id, :payment_id, :fee_component_id, :allocated_amount, :created_at)`
	for i := range allocations {
		if allocations[i].ID == "" {
			allocations[i].ID = uuid.NewString()
		}
		allocations[i].PaymentID = payment.ID
		allocations[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertAllocation, allocations[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert allocation: %w", err)
		}
	}

	const updateAssignment = `UPDATE student_fees
        SET paid_amount = paid_amount + $2, balance = GREATEST(balance - $2, 0), updated_at = $3
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateAssignment, assignment.ID, payment.Amount, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update assignment balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment: %w", err)
	}
	return nil
}

// DeletePayment removes a payment and its allocations. Used as a
// compensating delete when the outcome of a commit is unknown, so readers
// never observe a payment without matching allocations.
func (r *PaymentRepository) DeletePayment(ctx context.Context, paymentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete payment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fee_payment_allocations WHERE payment_id = $1`, paymentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete payment allocations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fee_payments WHERE id = $1`, paymentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete payment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete payment: %w", err)
	}
	return nil
}

// FindByID returns one payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, student_fee_assignment_id, school_id, amount, mode, date, receipt_number, created_by, notes, created_at
        FROM fee_payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// ListByStudent returns the student's payments newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	const query = `SELECT p.id, p.student_fee_assignment_id, p.school_id, p.amount, p.mode, p.date, p.receipt_number, p.created_by, p.notes, p.created_at
        FROM fee_payments p
        JOIN student_fees sf ON sf.id = p.student_fee_assignment_id
        WHERE sf.student_id = $1
        ORDER BY p.date DESC, p.created_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListAllocationDetails returns allocation lines with component names for
// the given payments.
func (r *PaymentRepository) ListAllocationDetails(ctx context.Context, paymentIDs []string) ([]models.AllocationDetail, error) {
	if len(paymentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(paymentIDs))
	args := make([]interface{}, len(paymentIDs))
	for i, id := range paymentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT a.payment_id, a.fee_component_id, c.name AS component_name, a.allocated_amount
        FROM fee_payment_allocations a
        JOIN fee_components c ON c.id = a.fee_component_id
        WHERE a.payment_id IN (%s)
        ORDER BY a.payment_id, a.created_at`, strings.Join(placeholders, ","))
	var details []models.AllocationDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list allocation details: %w", err)
	}
	return details, nil
}
