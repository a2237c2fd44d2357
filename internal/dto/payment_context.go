package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-fees-api/internal/models"
)

// StudentPaymentContext is the full fee picture for one student: identity,
// every assigned structure with annotated components, payment history and
// an aggregate summary.
type StudentPaymentContext struct {
	Student        StudentInfo           `json:"student"`
	FeeStructures  []FeeStructureContext `json:"fee_structures"`
	PaymentHistory []PaymentWithLines    `json:"payment_history"`
	Summary        PaymentSummary        `json:"summary"`
}

// StudentInfo identifies the student the context belongs to.
type StudentInfo struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	AdmissionNo string `json:"admission_no"`
	BatchLabel  string `json:"batch_label"`
}

// FeeStructureContext is a fee structure with its components annotated with
// paid-to-date figures.
type FeeStructureContext struct {
	ID           string             `json:"id"`
	AssignmentID string             `json:"assignment_id"`
	Name         string             `json:"name"`
	AcademicYear string             `json:"academic_year"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	PaidAmount   decimal.Decimal    `json:"paid_amount"`
	Balance      decimal.Decimal    `json:"balance"`
	Status       models.FeeStatus   `json:"status"`
	DueDate      time.Time          `json:"due_date"`
	Components   []ComponentContext `json:"components"`
}

// ComponentContext annotates one fee component with computed paid amount,
// balance and derived status.
type ComponentContext struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Amount     decimal.Decimal   `json:"amount"`
	DueDate    time.Time         `json:"due_date"`
	Recurrence models.Recurrence `json:"recurrence"`
	Priority   *int              `json:"priority,omitempty"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Balance    decimal.Decimal   `json:"balance"`
	Status     models.FeeStatus  `json:"status"`
}

// PaymentWithLines is one past payment together with its allocations.
type PaymentWithLines struct {
	Payment     models.Payment            `json:"payment"`
	Allocations []models.AllocationDetail `json:"allocations"`
}

// PaymentSummary aggregates the student's position across all structures.
// OverdueAmount is component-level: a structure can be partial overall
// while still contributing overdue component balances here.
type PaymentSummary struct {
	TotalDue        decimal.Decimal `json:"total_due"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	OverallBalance  decimal.Decimal `json:"overall_balance"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
}
