package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
)

// PaymentMethod is how the client settled the payment
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCash,
		PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is an append-only receipt recorded against an issued invoice
type Payment struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	PaymentDate     time.Time
	Method          PaymentMethod
	ReferenceNumber string
	Notes           string
	RecordedBy      uuid.UUID
	CreatedAt       time.Time
}

// NewPayment validates and creates a payment for the given invoice
func NewPayment(
	invoiceID uuid.UUID,
	amount decimal.Decimal,
	paymentDate time.Time,
	method PaymentMethod,
	reference string,
	notes string,
	recordedBy uuid.UUID,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown payment method: "+string(method))
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	return &Payment{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		Amount:          amount.Round(2),
		PaymentDate:     paymentDate,
		Method:          method,
		ReferenceNumber: strings.TrimSpace(reference),
		Notes:           notes,
		RecordedBy:      recordedBy,
		CreatedAt:       time.Now(),
	}, nil
}

// Snapshot returns the audit representation of the payment
func (p *Payment) Snapshot() map[string]any {
	return map[string]any{
		"id":               p.ID.String(),
		"invoice_id":       p.InvoiceID.String(),
		"amount":           p.Amount.StringFixed(2),
		"payment_date":     p.PaymentDate.Format(time.DateOnly),
		"payment_method":   string(p.Method),
		"reference_number": p.ReferenceNumber,
		"notes":            p.Notes,
	}
}
