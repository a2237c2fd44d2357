package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/dto"
	"github.com/noah-isme/sma-fees-api/internal/models"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
)

type contextStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type contextAssignmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentFeeAssignment, error)
}

type contextFeeReader interface {
	FindStructures(ctx context.Context, ids []string) ([]models.FeeStructure, error)
	ListComponentsByStructures(ctx context.Context, structureIDs []string) ([]models.FeeComponent, error)
	AllocatedTotalsByStudent(ctx context.Context, studentID string) (map[string]decimal.Decimal, error)
}

type contextPaymentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	ListAllocationDetails(ctx context.Context, paymentIDs []string) ([]models.AllocationDetail, error)
}

// FeeContextService assembles a student's full fee picture from storage.
// It is read-only; balances and statuses are recomputed on every call.
type FeeContextService struct {
	students    contextStudentReader
	assignments contextAssignmentReader
	fees        contextFeeReader
	payments    contextPaymentReader
	logger      *zap.Logger
	now         func() time.Time
}

// NewFeeContextService constructs FeeContextService.
func NewFeeContextService(students contextStudentReader, assignments contextAssignmentReader, fees contextFeeReader, payments contextPaymentReader, logger *zap.Logger) *FeeContextService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeContextService{
		students:    students,
		assignments: assignments,
		fees:        fees,
		payments:    payments,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// BuildContext returns the payment context for one student. A student with
// no fee assignments is not found; an empty payment history is valid.
func (s *FeeContextService) BuildContext(ctx context.Context, studentID string) (*dto.StudentPaymentContext, error) {
	assignments, err := s.assignments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee assignments")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no fee assignments")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	structureIDs := make([]string, len(assignments))
	for i, a := range assignments {
		structureIDs[i] = a.FeeStructureID
	}
	structures, err := s.fees.FindStructures(ctx, structureIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structures")
	}
	structuresByID := make(map[string]models.FeeStructure, len(structures))
	for _, st := range structures {
		structuresByID[st.ID] = st
	}

	components, err := s.fees.ListComponentsByStructures(ctx, structureIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee components")
	}
	componentsByStructure := make(map[string][]models.FeeComponent)
	for _, c := range components {
		componentsByStructure[c.FeeStructureID] = append(componentsByStructure[c.FeeStructureID], c)
	}

	allocated, err := s.fees.AllocatedTotalsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation totals")
	}

	now := s.now()
	overdueAmount := decimal.Zero
	structureContexts := make([]dto.FeeStructureContext, 0, len(assignments))
	for _, assignment := range assignments {
		structure, ok := structuresByID[assignment.FeeStructureID]
		if !ok {
			s.logger.Warn("fee assignment references missing structure",
				zap.String("assignment_id", assignment.ID),
				zap.String("fee_structure_id", assignment.FeeStructureID))
			continue
		}
		sc := dto.FeeStructureContext{
			ID:           structure.ID,
			AssignmentID: assignment.ID,
			Name:         structure.Name,
			AcademicYear: structure.AcademicYear,
			TotalAmount:  assignment.TotalAmount,
			PaidAmount:   assignment.PaidAmount,
			Balance:      assignment.Balance,
			Status:       assignment.Status(now),
			DueDate:      assignment.DueDate,
		}
		for _, component := range componentsByStructure[structure.ID] {
			paid := allocated[component.ID]
			balance := component.Amount.Sub(paid)
			if balance.IsNegative() {
				balance = decimal.Zero
			}
			status := models.DeriveFeeStatus(balance, paid, component.DueDate, now)
			if status == models.FeeStatusOverdue {
				overdueAmount = overdueAmount.Add(balance)
			}
			sc.Components = append(sc.Components, dto.ComponentContext{
				ID:         component.ID,
				Name:       component.Name,
				Amount:     component.Amount,
				DueDate:    component.DueDate,
				Recurrence: component.Recurrence,
				Priority:   component.Priority,
				PaidAmount: paid,
				Balance:    balance,
				Status:     status,
			})
		}
		structureContexts = append(structureContexts, sc)
	}

	history, lastPayment, err := s.buildHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}

	summary := dto.PaymentSummary{
		TotalDue:        decimal.Zero,
		TotalPaid:       decimal.Zero,
		OverallBalance:  decimal.Zero,
		OverdueAmount:   overdueAmount,
		LastPaymentDate: lastPayment,
	}
	for _, a := range assignments {
		summary.TotalDue = summary.TotalDue.Add(a.TotalAmount)
		summary.TotalPaid = summary.TotalPaid.Add(a.PaidAmount)
		summary.OverallBalance = summary.OverallBalance.Add(a.Balance)
	}

	return &dto.StudentPaymentContext{
		Student: dto.StudentInfo{
			ID:          student.ID,
			FullName:    student.FullName,
			AdmissionNo: student.AdmissionNo,
			BatchLabel:  student.BatchLabel,
		},
		FeeStructures:  structureContexts,
		PaymentHistory: history,
		Summary:        summary,
	}, nil
}

func (s *FeeContextService) buildHistory(ctx context.Context, studentID string) ([]dto.PaymentWithLines, *time.Time, error) {
	payments, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
	}
	if len(payments) == 0 {
		return []dto.PaymentWithLines{}, nil, nil
	}

	paymentIDs := make([]string, len(payments))
	for i, p := range payments {
		paymentIDs[i] = p.ID
	}
	details, err := s.payments.ListAllocationDetails(ctx, paymentIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment allocations")
	}
	byPayment := make(map[string][]models.AllocationDetail)
	for _, d := range details {
		byPayment[d.PaymentID] = append(byPayment[d.PaymentID], d)
	}

	history := make([]dto.PaymentWithLines, len(payments))
	for i, p := range payments {
		history[i] = dto.PaymentWithLines{Payment: p, Allocations: byPayment[p.ID]}
	}
	lastPayment := payments[0].Date
	return history, &lastPayment, nil
}
