package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
	"github.com/trainhub/backend/internal/interfaces/http/middleware"
)

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, actorID uuid.UUID, input financeapp.RecordPaymentInput) (*financeapp.RecordPaymentResult, error) {
	args := m.Called(ctx, actorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.RecordPaymentResult), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, invoiceID *uuid.UUID, limit, offset int) ([]financeapp.PaymentResponse, error) {
	args := m.Called(ctx, invoiceID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.PaymentResponse), args.Error(1)
}

func paymentBody(invoiceID uuid.UUID) map[string]any {
	return map[string]any{
		"invoice_id":       invoiceID.String(),
		"amount":           "2500.50",
		"payment_date":     "2026-02-01",
		"payment_method":   "bank_transfer",
		"reference_number": "TT-42",
	}
}

func TestPaymentHandler_RecordPayment(t *testing.T) {
	svc := new(MockPaymentService)
	h := NewPaymentHandler(svc)
	actor := financeActor()
	r := newTestRouter(actor)
	r.POST("/payments", h.RecordPayment)

	invoiceID := uuid.New()
	var captured financeapp.RecordPaymentInput
	svc.On("RecordPayment", mock.Anything, actor.UserID, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(financeapp.RecordPaymentInput) }).
		Return(&financeapp.RecordPaymentResult{
			Payment:       financeapp.PaymentResponse{ID: uuid.New(), InvoiceID: invoiceID},
			InvoiceStatus: "issued",
			TotalPaid:     decimal.RequireFromString("2500.50"),
		}, nil)

	w := performRequest(r, http.MethodPost, "/payments", paymentBody(invoiceID), middleware.HeaderIdempotencyKey, " key-1 ")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, invoiceID, captured.InvoiceID)
	assert.True(t, decimal.RequireFromString("2500.50").Equal(captured.Amount))
	assert.Equal(t, "2026-02-01", captured.PaymentDate.Format("2006-01-02"))
	assert.Equal(t, "bank_transfer", captured.PaymentMethod)
	assert.Equal(t, "key-1", captured.IdempotencyKey)
}

func TestPaymentHandler_RecordPayment_Replay(t *testing.T) {
	svc := new(MockPaymentService)
	h := NewPaymentHandler(svc)
	r := newTestRouter(financeActor())
	r.POST("/payments", h.RecordPayment)

	svc.On("RecordPayment", mock.Anything, mock.Anything, mock.Anything).
		Return(&financeapp.RecordPaymentResult{Replayed: true}, nil)

	w := performRequest(r, http.MethodPost, "/payments", paymentBody(uuid.New()), middleware.HeaderIdempotencyKey, "key-1")

	require.Equal(t, http.StatusOK, w.Code)
	var result financeapp.RecordPaymentResult
	decodeData(t, w, &result)
	assert.True(t, result.Replayed)
}

func TestPaymentHandler_RecordPayment_Validation(t *testing.T) {
	svc := new(MockPaymentService)
	h := NewPaymentHandler(svc)
	r := newTestRouter(financeActor())
	r.POST("/payments", h.RecordPayment)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"zero amount", func(b map[string]any) { b["amount"] = "0" }},
		{"negative amount", func(b map[string]any) { b["amount"] = "-1" }},
		{"unknown method", func(b map[string]any) { b["payment_method"] = "crypto" }},
		{"bad date", func(b map[string]any) { b["payment_date"] = "01/02/2026" }},
		{"missing invoice", func(b map[string]any) { delete(b, "invoice_id") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := paymentBody(uuid.New())
			tt.mutate(body)
			w := performRequest(r, http.MethodPost, "/payments", body)
			assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		})
	}

	t.Run("oversized idempotency key", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/payments", paymentBody(uuid.New()),
			middleware.HeaderIdempotencyKey, strings.Repeat("k", maxIdempotencyKeyLength+1))
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	svc.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_RecordPayment_DomainErrors(t *testing.T) {
	svc := new(MockPaymentService)
	h := NewPaymentHandler(svc)
	r := newTestRouter(financeActor())
	r.POST("/payments", h.RecordPayment)

	svc.On("RecordPayment", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Payments can only be recorded against issued invoices")).Once()

	w := performRequest(r, http.MethodPost, "/payments", paymentBody(uuid.New()))

	assertErrorCode(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)
}

func TestPaymentHandler_ListPayments(t *testing.T) {
	svc := new(MockPaymentService)
	h := NewPaymentHandler(svc)
	r := newTestRouter(financeActor())
	r.GET("/payments", h.ListPayments)

	invoiceID := uuid.New()
	svc.On("ListPayments", mock.Anything, &invoiceID, 5, 10).
		Return([]financeapp.PaymentResponse{{ID: uuid.New(), InvoiceID: invoiceID}}, nil)
	svc.On("ListPayments", mock.Anything, (*uuid.UUID)(nil), dto.DefaultPageLimit, 0).
		Return([]financeapp.PaymentResponse{}, nil)

	w := performRequest(r, http.MethodGet, "/payments?invoice_id="+invoiceID.String()+"&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []financeapp.PaymentResponse
	decodeData(t, w, &payments)
	assert.Len(t, payments, 1)

	w = performRequest(r, http.MethodGet, "/payments", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, http.MethodGet, "/payments?limit=501", nil)
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	svc.AssertExpectations(t)
}
