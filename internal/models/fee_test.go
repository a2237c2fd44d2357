package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveFeeStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	cases := []struct {
		name    string
		balance string
		paid    string
		dueDate time.Time
		want    FeeStatus
	}{
		{"unpaid before due date", "100", "0", future, FeeStatusDue},
		{"partially paid before due date", "60", "40", future, FeeStatusPartial},
		{"fully paid", "0", "100", past, FeeStatusPaid},
		{"overpaid still reads paid", "-5", "105", past, FeeStatusPaid},
		{"unpaid past due date", "100", "0", past, FeeStatusOverdue},
		{"partially paid past due date wins overdue", "60", "40", past, FeeStatusOverdue},
		{"no due date never goes overdue", "100", "0", time.Time{}, FeeStatusDue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveFeeStatus(decimal.RequireFromString(tc.balance), decimal.RequireFromString(tc.paid), tc.dueDate, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEffectivePriority(t *testing.T) {
	p := 3
	assert.Equal(t, 3, FeeComponent{Priority: &p}.EffectivePriority())
	assert.Equal(t, lowestPriority, FeeComponent{}.EffectivePriority())
}

func TestAssignmentStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := StudentFeeAssignment{
		TotalAmount: decimal.RequireFromString("500"),
		PaidAmount:  decimal.RequireFromString("200"),
		Balance:     decimal.RequireFromString("300"),
		DueDate:     now.AddDate(0, 1, 0),
	}
	assert.Equal(t, FeeStatusPartial, a.Status(now))
}
