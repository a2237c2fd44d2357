package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/dto"
	"github.com/noah-isme/sma-fees-api/internal/models"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
)

type mockContextBuilder struct {
	context *dto.StudentPaymentContext
	err     error
	calls   int
}

func (m *mockContextBuilder) BuildContext(ctx context.Context, studentID string) (*dto.StudentPaymentContext, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.context, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

// testPaymentContext gives a student two structures with four outstanding
// components spanning overdue/current status and mixed priorities:
//
//	Tuition (prio 1, overdue,  balance 300)
//	Library (prio 3, current,  balance 50)
//	Lab     (prio 2, overdue,  balance 100)
//	Sports  (no prio, current, balance 80)
func testPaymentContext() *dto.StudentPaymentContext {
	due := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return &dto.StudentPaymentContext{
		Student: dto.StudentInfo{ID: "stu-1", FullName: "Amina Yusuf"},
		FeeStructures: []dto.FeeStructureContext{
			{
				ID:   "fs-1",
				Name: "Term 1 Fees",
				Components: []dto.ComponentContext{
					{ID: "c-tuition", Name: "Tuition", Priority: intPtr(1), Balance: dec("300"), DueDate: due, Status: models.FeeStatusOverdue},
					{ID: "c-library", Name: "Library", Priority: intPtr(3), Balance: dec("50"), Status: models.FeeStatusDue},
				},
			},
			{
				ID:   "fs-2",
				Name: "Activity Fees",
				Components: []dto.ComponentContext{
					{ID: "c-lab", Name: "Lab", Priority: intPtr(2), Balance: dec("100"), DueDate: due, Status: models.FeeStatusOverdue},
					{ID: "c-sports", Name: "Sports", Balance: dec("80"), Status: models.FeeStatusDue},
				},
			},
		},
	}
}

func componentOrder(allocations []dto.SuggestedAllocation) []string {
	ids := make([]string, len(allocations))
	for i, a := range allocations {
		ids[i] = a.FeeComponentID
	}
	return ids
}

func TestAllocationServiceSuggestOverdueFirst(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	res, err := svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("350"),
		Strategy: models.StrategyOverdueFirst,
	})
	require.NoError(t, err)

	// Overdue components first, ordered by priority: tuition fills, lab
	// takes the remainder.
	assert.Equal(t, []string{"c-tuition", "c-lab"}, componentOrder(res.Allocations))
	assert.True(t, res.Allocations[0].Amount.Equal(dec("300")))
	assert.True(t, res.Allocations[1].Amount.Equal(dec("50")))
	assert.True(t, res.TotalAllocated.Equal(dec("350")))
	assert.True(t, res.Unallocated.IsZero())
}

func TestAllocationServiceSuggestPriorityBased(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	res, err := svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("420"),
		Strategy: models.StrategyPriorityBased,
	})
	require.NoError(t, err)

	// Priority ascending regardless of overdue status; sports (no priority)
	// would come last but the money runs out at library.
	assert.Equal(t, []string{"c-tuition", "c-lab", "c-library"}, componentOrder(res.Allocations))
	assert.True(t, res.Allocations[2].Amount.Equal(dec("20")))
	assert.True(t, res.TotalAllocated.Equal(dec("420")))
}

func TestAllocationServiceSuggestProportional(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	// Total outstanding 530; 265 is exactly half of every balance.
	res, err := svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("265"),
		Strategy: models.StrategyProportional,
	})
	require.NoError(t, err)

	require.Len(t, res.Allocations, 4)
	assert.True(t, res.Allocations[0].Amount.Equal(dec("150")))
	assert.True(t, res.Allocations[1].Amount.Equal(dec("25")))
	assert.True(t, res.Allocations[2].Amount.Equal(dec("50")))
	assert.True(t, res.Allocations[3].Amount.Equal(dec("40")))
	assert.True(t, res.TotalAllocated.Equal(dec("265")))
	assert.True(t, res.Unallocated.IsZero())
}

func TestAllocationServiceSuggestProportionalRoundingRemainder(t *testing.T) {
	builder := &mockContextBuilder{
		context: &dto.StudentPaymentContext{
			FeeStructures: []dto.FeeStructureContext{{
				ID: "fs-1",
				Components: []dto.ComponentContext{
					{ID: "c-1", Name: "A", Balance: dec("100")},
					{ID: "c-2", Name: "B", Balance: dec("100")},
					{ID: "c-3", Name: "C", Balance: dec("100")},
				},
			}},
		},
	}
	svc := NewAllocationService(builder, zap.NewNop())

	// 100/3 rounds to 33.33 per component; the cent of drift is surfaced,
	// never silently topped up.
	res, err := svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("100"),
		Strategy: models.StrategyProportional,
	})
	require.NoError(t, err)

	require.Len(t, res.Allocations, 3)
	for _, a := range res.Allocations {
		assert.True(t, a.Amount.Equal(dec("33.33")))
	}
	assert.True(t, res.TotalAllocated.Equal(dec("99.99")))
	assert.True(t, res.Unallocated.Equal(dec("0.01")))
}

func TestAllocationServiceSuggestOverpayment(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	res, err := svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("600"),
		Strategy: models.StrategyOverdueFirst,
	})
	require.NoError(t, err)

	// Everything outstanding gets covered; the excess is never allocated.
	assert.True(t, res.TotalAllocated.Equal(dec("530")))
	assert.True(t, res.Unallocated.Equal(dec("70")))
}

func TestAllocationServiceSuggestDeterministic(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	req := dto.SuggestAllocationRequest{Amount: dec("200"), Strategy: models.StrategyOverdueFirst}
	first, err := svc.Suggest(context.Background(), "stu-1", req)
	require.NoError(t, err)
	second, err := svc.Suggest(context.Background(), "stu-1", req)
	require.NoError(t, err)

	assert.Equal(t, componentOrder(first.Allocations), componentOrder(second.Allocations))
}

func TestAllocationServiceSuggestInvalidInput(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	_, err := svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("0"),
		Strategy: models.StrategyOverdueFirst,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Suggest(context.Background(), "stu-1", dto.SuggestAllocationRequest{
		Amount:   dec("100"),
		Strategy: models.AllocationStrategy("newest_first"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, builder.calls)
}

func TestAllocationServiceValidate(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	res, err := svc.Validate(context.Background(), "stu-1", dto.ValidateAllocationRequest{
		Allocations: []dto.AllocationInput{
			{FeeComponentID: "c-tuition", Amount: dec("100")},
			{FeeComponentID: "c-library", Amount: dec("50")},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	// Library is paid to exactly zero.
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Library")
}

func TestAllocationServiceValidateErrors(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	res, err := svc.Validate(context.Background(), "stu-1", dto.ValidateAllocationRequest{
		Allocations: []dto.AllocationInput{
			{FeeComponentID: "c-ghost", Amount: dec("10")},
			{FeeComponentID: "c-tuition", Amount: dec("0")},
			{FeeComponentID: "c-library", Amount: dec("75")},
		},
	})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "unknown fee component")
	assert.Contains(t, res.Errors[1], "greater than zero")
	assert.Contains(t, res.Errors[2], "exceeds current balance")
}

func TestAllocationServiceValidateDuplicateComponentLines(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	// Tuition has a balance of 300; two lines of 200 each pass alone but
	// their sum over-allocates the component.
	res, err := svc.Validate(context.Background(), "stu-1", dto.ValidateAllocationRequest{
		Allocations: []dto.AllocationInput{
			{FeeComponentID: "c-tuition", Amount: dec("200")},
			{FeeComponentID: "c-tuition", Amount: dec("200")},
		},
	})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "allocation of 400.00 to Tuition exceeds current balance of 300.00")

	// Duplicate lines summing exactly to the balance are valid and warn once.
	res, err = svc.Validate(context.Background(), "stu-1", dto.ValidateAllocationRequest{
		Allocations: []dto.AllocationInput{
			{FeeComponentID: "c-tuition", Amount: dec("150")},
			{FeeComponentID: "c-tuition", Amount: dec("150")},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.IsValid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Tuition will be fully paid")
}

func TestAllocationServiceValidateZeroTotal(t *testing.T) {
	builder := &mockContextBuilder{context: testPaymentContext()}
	svc := NewAllocationService(builder, zap.NewNop())

	res, err := svc.Validate(context.Background(), "stu-1", dto.ValidateAllocationRequest{
		Allocations: []dto.AllocationInput{{FeeComponentID: "c-ghost", Amount: dec("10")}},
	})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors[len(res.Errors)-1], "allocation total must be greater than zero")
}
