package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode is a label describing how a payment was tendered. It is not a
// transport: no gateway integration happens here.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "CASH"
	PaymentModeBank   PaymentMode = "BANK_TRANSFER"
	PaymentModeCheque PaymentMode = "CHEQUE"
	PaymentModeMobile PaymentMode = "MOBILE_MONEY"
)

// Payment is one recorded fee transaction. Immutable once committed.
type Payment struct {
	ID                     string          `db:"id" json:"id"`
	StudentFeeAssignmentID string          `db:"student_fee_assignment_id" json:"student_fee_assignment_id"`
	SchoolID               string          `db:"school_id" json:"school_id"`
	Amount                 decimal.Decimal `db:"amount" json:"amount"`
	Mode                   PaymentMode     `db:"mode" json:"mode"`
	Date                   time.Time       `db:"date" json:"date"`
	ReceiptNumber          string          `db:"receipt_number" json:"receipt_number"`
	CreatedBy              string          `db:"created_by" json:"created_by"`
	Notes                  *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
}

// PaymentAllocation is the portion of one payment applied to one fee
// component. For a committed payment the allocated amounts sum to the
// payment amount exactly.
type PaymentAllocation struct {
	ID              string          `db:"id" json:"id"`
	PaymentID       string          `db:"payment_id" json:"payment_id"`
	FeeComponentID  string          `db:"fee_component_id" json:"fee_component_id"`
	AllocatedAmount decimal.Decimal `db:"allocated_amount" json:"allocated_amount"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// AllocationDetail is an allocation joined with its component name, as read
// back for payment history and receipts.
type AllocationDetail struct {
	PaymentID       string          `db:"payment_id" json:"payment_id"`
	FeeComponentID  string          `db:"fee_component_id" json:"fee_component_id"`
	ComponentName   string          `db:"component_name" json:"component_name"`
	AllocatedAmount decimal.Decimal `db:"allocated_amount" json:"allocated_amount"`
}

// AllocationStrategy selects the rule used to auto-split a payment across
// outstanding components.
type AllocationStrategy string

const (
	StrategyOverdueFirst  AllocationStrategy = "overdue_first"
	StrategyPriorityBased AllocationStrategy = "priority_based"
	StrategyProportional  AllocationStrategy = "proportional"
)

// Valid reports whether the strategy is one of the supported variants.
func (s AllocationStrategy) Valid() bool {
	switch s {
	case StrategyOverdueFirst, StrategyPriorityBased, StrategyProportional:
		return true
	}
	return false
}
