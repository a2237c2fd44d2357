package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fees-api/internal/dto"
	"github.com/noah-isme/sma-fees-api/internal/service"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
	"github.com/noah-isme/sma-fees-api/pkg/response"
)

// PaymentHandler exposes payment recording and receipt endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	exports  *service.ExportService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, exports *service.ExportService) *PaymentHandler {
	return &PaymentHandler{payments: payments, exports: exports}
}

// Record godoc
// @Summary Record a fee payment with its allocations
// @Description Commits the payment atomically. Not idempotent: submitting
// @Description the same payload twice records two payments.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body dto.RecordPaymentRequest true "Payment with allocations"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Balance changed since validation"
// @Router /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.payments.Record(c.Request.Context(), req, claims.UserID, claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Receipt godoc
// @Summary Payment receipt as PDF
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {string} string "PDF payload"
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	payload, filename, err := h.exports.ReceiptPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
