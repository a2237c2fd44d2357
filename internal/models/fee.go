package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recurrence describes how often a fee component is billed.
type Recurrence string

const (
	RecurrenceMonthly   Recurrence = "MONTHLY"
	RecurrenceQuarterly Recurrence = "QUARTERLY"
	RecurrenceOneTime   Recurrence = "ONE_TIME"
)

// FeeStatus is the derived payment state of a component or assignment.
type FeeStatus string

const (
	FeeStatusDue     FeeStatus = "DUE"
	FeeStatusPartial FeeStatus = "PARTIAL"
	FeeStatusPaid    FeeStatus = "PAID"
	FeeStatusOverdue FeeStatus = "OVERDUE"
)

// lowestPriority is the effective priority of components without one set.
const lowestPriority = 1<<31 - 1

// DeriveFeeStatus computes the payment state from balance, paid amount and
// due date. Status is never stored; it is recomputed on every read.
func DeriveFeeStatus(balance, paidAmount decimal.Decimal, dueDate time.Time, now time.Time) FeeStatus {
	if balance.LessThanOrEqual(decimal.Zero) {
		return FeeStatusPaid
	}
	if !dueDate.IsZero() && now.After(dueDate) {
		return FeeStatusOverdue
	}
	if paidAmount.GreaterThan(decimal.Zero) {
		return FeeStatusPartial
	}
	return FeeStatusDue
}

// FeeStructure is a named bundle of fee components for an academic year.
type FeeStructure struct {
	ID           string          `db:"id" json:"id"`
	SchoolID     string          `db:"school_id" json:"school_id"`
	Name         string          `db:"name" json:"name"`
	AcademicYear string          `db:"academic_year" json:"academic_year"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// FeeComponent is one billable line item within a fee structure. Amount and
// due date are immutable once billed.
type FeeComponent struct {
	ID             string          `db:"id" json:"id"`
	FeeStructureID string          `db:"fee_structure_id" json:"fee_structure_id"`
	Name           string          `db:"name" json:"name"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	DueDate        time.Time       `db:"due_date" json:"due_date"`
	Recurrence     Recurrence      `db:"recurrence" json:"recurrence"`
	Priority       *int            `db:"priority" json:"priority,omitempty"`
	Position       int             `db:"position" json:"position"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// EffectivePriority treats an unset priority as lowest (paid last).
func (c FeeComponent) EffectivePriority() int {
	if c.Priority == nil {
		return lowestPriority
	}
	return *c.Priority
}

// StudentFeeAssignment binds a student to a fee structure instance and
// tracks the aggregate paid amount and balance. Mutated only by the
// payment recorder; balance + paid_amount always equals total_amount.
type StudentFeeAssignment struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	FeeStructureID string          `db:"fee_structure_id" json:"fee_structure_id"`
	SchoolID       string          `db:"school_id" json:"school_id"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount     decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	DueDate        time.Time       `db:"due_date" json:"due_date"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Status derives the assignment state as of now.
func (a StudentFeeAssignment) Status(now time.Time) FeeStatus {
	return DeriveFeeStatus(a.Balance, a.PaidAmount, a.DueDate, now)
}

// OutstandingStudent is one row of the students-with-outstanding-fees query.
type OutstandingStudent struct {
	StudentID        string          `db:"student_id" json:"student_id"`
	FullName         string          `db:"full_name" json:"full_name"`
	AdmissionNo      string          `db:"admission_no" json:"admission_no"`
	BatchLabel       string          `db:"batch_label" json:"batch_label"`
	TotalOutstanding decimal.Decimal `db:"total_outstanding" json:"total_outstanding"`
	IsOverdue        bool            `db:"is_overdue" json:"is_overdue"`
}
