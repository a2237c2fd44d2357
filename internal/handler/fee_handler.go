package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fees-api/internal/dto"
	"github.com/noah-isme/sma-fees-api/internal/service"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
	"github.com/noah-isme/sma-fees-api/pkg/response"
)

// FeeHandler exposes the payment context, allocation and outstanding-fees
// endpoints.
type FeeHandler struct {
	contexts    *service.FeeContextService
	allocations *service.AllocationService
	outstanding *service.OutstandingService
	exports     *service.ExportService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(contexts *service.FeeContextService, allocations *service.AllocationService, outstanding *service.OutstandingService, exports *service.ExportService) *FeeHandler {
	return &FeeHandler{contexts: contexts, allocations: allocations, outstanding: outstanding, exports: exports}
}

// PaymentContext godoc
// @Summary Full fee picture for one student
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/payment-context [get]
func (h *FeeHandler) PaymentContext(c *gin.Context) {
	context, err := h.contexts.BuildContext(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, context, nil)
}

// Suggest godoc
// @Summary Propose an allocation split for a payment amount
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.SuggestAllocationRequest true "Amount and strategy"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/allocations/suggest [post]
func (h *FeeHandler) Suggest(c *gin.Context) {
	var req dto.SuggestAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	suggestion, err := h.allocations.Suggest(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Validate godoc
// @Summary Check proposed allocations against current balances
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.ValidateAllocationRequest true "Proposed allocations"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/allocations/validate [post]
func (h *FeeHandler) Validate(c *gin.Context) {
	var req dto.ValidateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.allocations.Validate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Outstanding godoc
// @Summary Students with outstanding fees in the caller's school
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/outstanding [get]
func (h *FeeHandler) Outstanding(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	students, err := h.outstanding.List(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// OutstandingExport godoc
// @Summary Outstanding fees as CSV or PDF
// @Tags Fees
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Success 200 {string} string "File payload"
// @Router /fees/outstanding/export [get]
func (h *FeeHandler) OutstandingExport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.exports.OutstandingCSV(c.Request.Context(), claims.SchoolID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="outstanding-fees.csv"`)
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.exports.OutstandingPDF(c.Request.Context(), claims.SchoolID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="outstanding-fees.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
