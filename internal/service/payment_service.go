package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/dto"
	"github.com/noah-isme/sma-fees-api/internal/models"
	"github.com/noah-isme/sma-fees-api/internal/repository"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
)

type paymentRecorder interface {
	RecordPayment(ctx context.Context, payment *models.Payment, allocations []models.PaymentAllocation) error
	DeletePayment(ctx context.Context, paymentID string) error
}

type recorderAssignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentFeeAssignment, error)
}

type outstandingInvalidator interface {
	Delete(ctx context.Context, key string) error
}

type paymentMetrics interface {
	PaymentRecorded(mode string)
	AllocationConflict()
}

// PaymentConfig tunes receipt numbering.
type PaymentConfig struct {
	ReceiptPrefix string
}

// PaymentService commits validated allocations: one payment, its
// allocation rows and the assignment balance update as a single atomic
// unit. Recording is deliberately not idempotent; submitting the same
// payload twice records two payments.
type PaymentService struct {
	payments    paymentRecorder
	assignments recorderAssignmentReader
	cache       outstandingInvalidator
	metrics     paymentMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	config      PaymentConfig
	now         func() time.Time
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(payments paymentRecorder, assignments recorderAssignmentReader, cache outstandingInvalidator, metrics paymentMetrics, validate *validator.Validate, logger *zap.Logger, config PaymentConfig) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ReceiptPrefix == "" {
		config.ReceiptPrefix = "RCP"
	}
	return &PaymentService{
		payments:    payments,
		assignments: assignments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Record commits a payment. All preconditions are re-checked inside the
// repository transaction; a stale balance surfaces as a retryable conflict.
func (s *PaymentService) Record(ctx context.Context, req dto.RecordPaymentRequest, createdBy, schoolID string) (*dto.PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.TotalAmount.GreaterThan(decimal.Zero) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be greater than zero")
	}

	total := decimal.Zero
	for _, line := range req.Allocations {
		if !line.Amount.GreaterThan(decimal.Zero) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "every allocation amount must be greater than zero")
		}
		total = total.Add(line.Amount)
	}
	if !total.Equal(req.TotalAmount) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("allocation total %s does not match payment amount %s", total.StringFixed(2), req.TotalAmount.StringFixed(2)))
	}

	assignment, err := s.assignments.FindByID(ctx, req.StudentFeeAssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student fee assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee assignment")
	}
	if assignment.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee assignment does not belong to student")
	}

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	receiptNumber := req.ReceiptNumber
	if receiptNumber == "" {
		receiptNumber = s.generateReceiptNumber(date)
	}

	payment := &models.Payment{
		ID:                     uuid.NewString(),
		StudentFeeAssignmentID: assignment.ID,
		SchoolID:               schoolID,
		Amount:                 req.TotalAmount,
		Mode:                   req.Mode,
		Date:                   date,
		ReceiptNumber:          receiptNumber,
		CreatedBy:              createdBy,
		Notes:                  req.Notes,
	}

	allocations := make([]models.PaymentAllocation, len(req.Allocations))
	for i, line := range req.Allocations {
		allocations[i] = models.PaymentAllocation{
			FeeComponentID:  line.FeeComponentID,
			AllocatedAmount: line.Amount,
		}
	}

	if err := s.payments.RecordPayment(ctx, payment, allocations); err != nil {
		return nil, s.mapRecordError(ctx, payment, err)
	}

	if s.metrics != nil {
		s.metrics.PaymentRecorded(string(payment.Mode))
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, OutstandingCacheKey(schoolID)); err != nil {
			s.logger.Warn("failed to invalidate outstanding cache", zap.Error(err), zap.String("school_id", schoolID))
		}
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("assignment_id", assignment.ID),
		zap.String("amount", payment.Amount.StringFixed(2)))

	return &dto.PaymentResult{
		Success:       true,
		PaymentID:     payment.ID,
		ReceiptNumber: payment.ReceiptNumber,
		Message:       "payment recorded",
		Allocations:   allocations,
	}, nil
}

func (s *PaymentService) mapRecordError(ctx context.Context, payment *models.Payment, err error) error {
	switch {
	case errors.Is(err, repository.ErrStaleBalance):
		if s.metrics != nil {
			s.metrics.AllocationConflict()
		}
		return appErrors.Wrap(err, appErrors.ErrStaleBalance.Code, appErrors.ErrStaleBalance.Status, appErrors.ErrStaleBalance.Message)
	case errors.Is(err, repository.ErrUnknownComponent):
		return appErrors.Clone(appErrors.ErrValidation, "allocation references a component outside the fee structure")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "student fee assignment not found")
	}

	// The commit outcome is unknown; remove any partially visible payment
	// so no payment ever exists without its allocations.
	if delErr := s.payments.DeletePayment(ctx, payment.ID); delErr != nil {
		s.logger.Warn("compensating payment delete failed",
			zap.Error(delErr), zap.String("payment_id", payment.ID))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
}

func (s *PaymentService) generateReceiptNumber(date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", s.config.ReceiptPrefix, date.Format("20060102"), suffix)
}
