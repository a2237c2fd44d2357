package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/models"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
	"github.com/noah-isme/sma-fees-api/pkg/export"
)

type exportPaymentReader interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListAllocationDetails(ctx context.Context, paymentIDs []string) ([]models.AllocationDetail, error)
}

type exportAssignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentFeeAssignment, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type exportOutstandingLister interface {
	List(ctx context.Context, schoolID string) ([]models.OutstandingStudent, error)
}

// ExportService renders payment receipts and outstanding-fee reports.
// Both are synchronous, on-demand renders; nothing is stored.
type ExportService struct {
	payments    exportPaymentReader
	assignments exportAssignmentReader
	students    exportStudentReader
	outstanding exportOutstandingLister
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(payments exportPaymentReader, assignments exportAssignmentReader, students exportStudentReader, outstanding exportOutstandingLister, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		payments:    payments,
		assignments: assignments,
		students:    students,
		outstanding: outstanding,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// ReceiptPDF renders the receipt for a committed payment. The filename is
// derived from the receipt number.
func (s *ExportService) ReceiptPDF(ctx context.Context, paymentID string) ([]byte, string, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	assignment, err := s.assignments.FindByID(ctx, payment.StudentFeeAssignmentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee assignment")
	}
	student, err := s.students.FindByID(ctx, assignment.StudentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	details, err := s.payments.ListAllocationDetails(ctx, []string{payment.ID})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}

	lines := make([]export.ReceiptLine, len(details))
	for i, d := range details {
		lines[i] = export.ReceiptLine{Component: d.ComponentName, Amount: d.AllocatedAmount.StringFixed(2)}
	}
	notes := ""
	if payment.Notes != nil {
		notes = *payment.Notes
	}

	pdfBytes, err := s.pdf.RenderReceipt(export.ReceiptData{
		ReceiptNumber: payment.ReceiptNumber,
		StudentName:   student.FullName,
		AdmissionNo:   student.AdmissionNo,
		Date:          payment.Date,
		Mode:          string(payment.Mode),
		Total:         payment.Amount.StringFixed(2),
		Lines:         lines,
		Notes:         notes,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}

	filename := fmt.Sprintf("receipt-%s.pdf", payment.ReceiptNumber)
	return pdfBytes, filename, nil
}

// OutstandingCSV renders the outstanding-fees listing for a school.
func (s *ExportService) OutstandingCSV(ctx context.Context, schoolID string) ([]byte, error) {
	dataset, err := s.outstandingDataset(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// OutstandingPDF renders the same listing as a tabular PDF.
func (s *ExportService) OutstandingPDF(ctx context.Context, schoolID string) ([]byte, error) {
	dataset, err := s.outstandingDataset(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset, "Outstanding Fees")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *ExportService) outstandingDataset(ctx context.Context, schoolID string) (export.Dataset, error) {
	students, err := s.outstanding.List(ctx, schoolID)
	if err != nil {
		return export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"admission_no", "full_name", "batch", "total_outstanding", "overdue"},
	}
	for _, student := range students {
		overdue := "no"
		if student.IsOverdue {
			overdue = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"admission_no":      student.AdmissionNo,
			"full_name":         student.FullName,
			"batch":             student.BatchLabel,
			"total_outstanding": student.TotalOutstanding.StringFixed(2),
			"overdue":           overdue,
		})
	}
	return dataset, nil
}
