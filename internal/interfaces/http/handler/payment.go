package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
	"github.com/trainhub/backend/internal/interfaces/http/middleware"
)

// maxIdempotencyKeyLength bounds the Idempotency-Key header
const maxIdempotencyKeyLength = 128

// PaymentService is the payment ledger surface the handler depends on
type PaymentService interface {
	RecordPayment(ctx context.Context, actorID uuid.UUID, input financeapp.RecordPaymentInput) (*financeapp.RecordPaymentResult, error)
	ListPayments(ctx context.Context, invoiceID *uuid.UUID, limit, offset int) ([]financeapp.PaymentResponse, error)
}

// PaymentHandler handles the payment ledger endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RecordPaymentRequest records money received against an invoice
type RecordPaymentRequest struct {
	InvoiceID       string          `json:"invoice_id" binding:"required,uuid" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	Amount          decimal.Decimal `json:"amount" binding:"gt=0" swaggertype:"string" example:"5000.00"`
	PaymentDate     string          `json:"payment_date" binding:"required,datetime=2006-01-02" example:"2026-02-01"`
	PaymentMethod   string          `json:"payment_method" binding:"required,oneof=bank_transfer cheque cash online other" example:"bank_transfer"`
	ReferenceNumber string          `json:"reference_number" binding:"max=100" example:"TT-2026-0042"`
	Notes           string          `json:"notes" binding:"max=2000"`
}

// ListPaymentsQuery are the query parameters of the payment listing
type ListPaymentsQuery struct {
	dto.PageRequest
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
}

// RecordPayment godoc
// @ID           recordPayment
// @Summary      Record a payment
// @Description  Appends a payment to an issued invoice. The invoice becomes paid once payments cover its total.
// @Description  A repeated Idempotency-Key returns the first result without recording again.
// @Tags         finance-payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key for safe retries"
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=financeapp.RecordPaymentResult}
// @Success      200 {object} dto.Response{data=financeapp.RecordPaymentResult} "Replayed"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	key := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	paymentDate, err := time.Parse(time.DateOnly, req.PaymentDate)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "payment_date must be YYYY-MM-DD")
		return
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), actor.UserID, financeapp.RecordPaymentInput{
		InvoiceID:       uuid.MustParse(req.InvoiceID),
		Amount:          req.Amount,
		PaymentDate:     paymentDate,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		IdempotencyKey:  key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
		return
	}
	h.Created(c, result)
}

// ListPayments godoc
// @ID           listPayments
// @Summary      List payments
// @Description  Lists recorded payments newest first, optionally for one invoice
// @Tags         finance-payments
// @Produce      json
// @Param        invoice_id query string false "Invoice ID" format(uuid)
// @Param        limit query int false "Page size" default(50) maximum(500)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} dto.Response{data=[]financeapp.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var q ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	var invoiceID *uuid.UUID
	if q.InvoiceID != "" {
		id := uuid.MustParse(q.InvoiceID)
		invoiceID = &id
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), invoiceID, q.EffectiveLimit(), q.Offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}
