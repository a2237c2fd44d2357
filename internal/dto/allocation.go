package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-fees-api/internal/models"
)

// SuggestAllocationRequest asks the engine to propose a split of the given
// amount across the student's outstanding components.
type SuggestAllocationRequest struct {
	Amount   decimal.Decimal           `json:"amount" validate:"required"`
	Strategy models.AllocationStrategy `json:"strategy" validate:"required"`
}

// SuggestedAllocation is one proposed allocation line, annotated with the
// component's current balance and its parent structure for display.
type SuggestedAllocation struct {
	FeeComponentID   string          `json:"fee_component_id"`
	ComponentName    string          `json:"component_name"`
	FeeStructureID   string          `json:"fee_structure_id"`
	FeeStructureName string          `json:"fee_structure_name"`
	Amount           decimal.Decimal `json:"amount"`
	ComponentBalance decimal.Decimal `json:"component_balance"`
	IsOverdue        bool            `json:"is_overdue"`
}

// SuggestAllocationResponse carries the proposed split. Unallocated is the
// portion of the tendered amount no strategy line consumed; it must be
// resolved by the caller before a payment is submitted.
type SuggestAllocationResponse struct {
	Strategy       models.AllocationStrategy `json:"strategy"`
	Allocations    []SuggestedAllocation     `json:"allocations"`
	TotalAllocated decimal.Decimal           `json:"total_allocated"`
	Unallocated    decimal.Decimal           `json:"unallocated"`
}

// AllocationInput is one proposed allocation line as submitted by a caller,
// either engine-suggested or hand-edited.
type AllocationInput struct {
	FeeComponentID string          `json:"fee_component_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
}

// ValidateAllocationRequest checks proposed lines against fresh balances.
type ValidateAllocationRequest struct {
	Allocations []AllocationInput `json:"allocations" validate:"required,min=1,dive"`
}

// ValidationResult reports the outcome of an advisory allocation check.
// Warnings never affect validity; the recorder re-checks at commit time.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// RecordPaymentRequest is the payload committed by the payment recorder.
type RecordPaymentRequest struct {
	StudentID              string             `json:"student_id" validate:"required"`
	StudentFeeAssignmentID string             `json:"student_fee_assignment_id" validate:"required"`
	TotalAmount            decimal.Decimal    `json:"total_amount" validate:"required"`
	Mode                   models.PaymentMode `json:"mode" validate:"required"`
	Date                   time.Time          `json:"date"`
	Allocations            []AllocationInput  `json:"allocations" validate:"required,min=1,dive"`
	Notes                  *string            `json:"notes,omitempty"`
	ReceiptNumber          string             `json:"receipt_number,omitempty"`
}

// PaymentResult is the outcome of a record-payment call.
type PaymentResult struct {
	Success       bool                       `json:"success"`
	PaymentID     string                     `json:"payment_id,omitempty"`
	ReceiptNumber string                     `json:"receipt_number,omitempty"`
	Message       string                     `json:"message"`
	Allocations   []models.PaymentAllocation `json:"allocations,omitempty"`
}
