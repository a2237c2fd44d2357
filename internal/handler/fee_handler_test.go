package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/middleware"
	"github.com/noah-isme/sma-fees-api/internal/models"
	"github.com/noah-isme/sma-fees-api/internal/service"
)

type stubStudentRepo struct{ student *models.Student }

func (s *stubStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return s.student, nil
}

type stubAssignmentRepo struct{ assignments []models.StudentFeeAssignment }

func (s *stubAssignmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.StudentFeeAssignment, error) {
	return s.assignments, nil
}

type stubFeeRepo struct {
	structures []models.FeeStructure
	components []models.FeeComponent
}

func (s *stubFeeRepo) FindStructures(ctx context.Context, ids []string) ([]models.FeeStructure, error) {
	return s.structures, nil
}

func (s *stubFeeRepo) ListComponentsByStructures(ctx context.Context, structureIDs []string) ([]models.FeeComponent, error) {
	return s.components, nil
}

func (s *stubFeeRepo) AllocatedTotalsByStudent(ctx context.Context, studentID string) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}

type stubPaymentReader struct{}

func (s *stubPaymentReader) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	return nil, nil
}

func (s *stubPaymentReader) ListAllocationDetails(ctx context.Context, paymentIDs []string) ([]models.AllocationDetail, error) {
	return nil, nil
}

type stubOutstandingRepo struct{ students []models.OutstandingStudent }

func (s *stubOutstandingRepo) ListOutstanding(ctx context.Context, schoolID string) ([]models.OutstandingStudent, error) {
	return s.students, nil
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	}
}

func newFeeTestRouter(t *testing.T, claims *models.JWTClaims) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	due := time.Now().AddDate(0, 1, 0)
	contextSvc := service.NewFeeContextService(
		&stubStudentRepo{student: &models.Student{ID: "stu-1", FullName: "Amina Yusuf", AdmissionNo: "ADM-001"}},
		&stubAssignmentRepo{assignments: []models.StudentFeeAssignment{{
			ID: "sfa-1", StudentID: "stu-1", FeeStructureID: "fs-1",
			TotalAmount: decimal.RequireFromString("500"),
			Balance:     decimal.RequireFromString("500"),
			DueDate:     due,
		}}},
		&stubFeeRepo{
			structures: []models.FeeStructure{{ID: "fs-1", Name: "Term 1 Fees"}},
			components: []models.FeeComponent{
				{ID: "c-tuition", FeeStructureID: "fs-1", Name: "Tuition", Amount: decimal.RequireFromString("400"), DueDate: due},
				{ID: "c-library", FeeStructureID: "fs-1", Name: "Library", Amount: decimal.RequireFromString("100"), DueDate: due},
			},
		},
		&stubPaymentReader{},
		zap.NewNop(),
	)
	allocationSvc := service.NewAllocationService(contextSvc, zap.NewNop())
	outstandingSvc := service.NewOutstandingService(&stubOutstandingRepo{students: []models.OutstandingStudent{{
		StudentID: "stu-1", FullName: "Amina Yusuf", TotalOutstanding: decimal.RequireFromString("500"),
	}}}, nil, time.Minute, zap.NewNop())

	h := NewFeeHandler(contextSvc, allocationSvc, outstandingSvc, nil)

	router := gin.New()
	router.Use(withClaims(claims))
	router.GET("/students/:id/payment-context", h.PaymentContext)
	router.POST("/students/:id/allocations/suggest", h.Suggest)
	router.POST("/students/:id/allocations/validate", h.Validate)
	router.GET("/fees/outstanding", h.Outstanding)
	return router
}

func bursarClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", SchoolID: "school-1", Role: models.RoleBursar}
}

func TestFeeHandlerPaymentContext(t *testing.T) {
	router := newFeeTestRouter(t, bursarClaims())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/students/stu-1/payment-context", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Student struct {
				FullName string `json:"full_name"`
			} `json:"student"`
			FeeStructures []struct {
				Components []struct {
					Balance decimal.Decimal `json:"balance"`
				} `json:"components"`
			} `json:"fee_structures"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Amina Yusuf", body.Data.Student.FullName)
	require.Len(t, body.Data.FeeStructures, 1)
	require.Len(t, body.Data.FeeStructures[0].Components, 2)
}

func TestFeeHandlerSuggest(t *testing.T) {
	router := newFeeTestRouter(t, bursarClaims())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/students/stu-1/allocations/suggest",
		strings.NewReader(`{"amount": "250", "strategy": "overdue_first"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Allocations    []json.RawMessage `json:"allocations"`
			TotalAllocated decimal.Decimal   `json:"total_allocated"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Allocations)
	assert.True(t, body.Data.TotalAllocated.Equal(decimal.RequireFromString("250")))
}

func TestFeeHandlerSuggestBadStrategy(t *testing.T) {
	router := newFeeTestRouter(t, bursarClaims())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/students/stu-1/allocations/suggest",
		strings.NewReader(`{"amount": "250", "strategy": "biggest_first"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeeHandlerValidate(t *testing.T) {
	router := newFeeTestRouter(t, bursarClaims())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/students/stu-1/allocations/validate",
		strings.NewReader(`{"allocations": [{"fee_component_id": "c-tuition", "amount": "600"}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			IsValid bool     `json:"is_valid"`
			Errors  []string `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.IsValid)
	assert.NotEmpty(t, body.Data.Errors)
}

func TestFeeHandlerOutstanding(t *testing.T) {
	router := newFeeTestRouter(t, bursarClaims())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fees/outstanding", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []struct {
			FullName string `json:"full_name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Amina Yusuf", body.Data[0].FullName)
}

func TestFeeHandlerOutstandingWithoutClaims(t *testing.T) {
	router := newFeeTestRouter(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fees/outstanding", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
