package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypeInvoiceStatusChanged = "InvoiceStatusChanged"
	EventTypePaymentRecorded      = "PaymentRecorded"
	EventTypeCommissionFinalized  = "MarketingCommissionFinalized"
	EventTypePayablePaid          = "PayablePaid"
)

// Aggregate type constants
const (
	AggregateTypeInvoice    = "Invoice"
	AggregateTypePayment    = "Payment"
	AggregateTypeCommission = "MarketingCommission"
	AggregateTypePayable    = "Payable"
)

// InvoiceCreatedEvent is raised when an invoice is created for a session
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	SessionID     uuid.UUID `json:"session_id"`
	CompanyID     uuid.UUID `json:"company_id"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.CreatedBy),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		SessionID:       inv.SessionID,
		CompanyID:       inv.CompanyID,
	}
}

// InvoiceStatusChangedEvent is raised on every invoice status transition
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	SessionID     uuid.UUID       `json:"session_id"`
	From          InvoiceStatus   `json:"from"`
	To            InvoiceStatus   `json:"to"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Reason        string          `json:"reason,omitempty"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, from InvoiceStatus, actorID uuid.UUID, reason string) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, AggregateTypeInvoice, inv.ID, actorID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		SessionID:       inv.SessionID,
		From:            from,
		To:              inv.Status,
		TotalAmount:     inv.TotalAmount,
		Reason:          reason,
	}
}

// PaymentRecordedEvent is raised when a payment is appended to the ledger
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID       `json:"payment_id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      PaymentMethod   `json:"payment_method"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.RecordedBy),
		PaymentID:       p.ID,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		Method:          p.Method,
	}
}

// CommissionFinalizedEvent is raised when a commission amount is fixed at invoice issue
type CommissionFinalizedEvent struct {
	shared.BaseDomainEvent
	CommissionID     uuid.UUID       `json:"commission_id"`
	SessionID        uuid.UUID       `json:"session_id"`
	MarketingUserID  uuid.UUID       `json:"marketing_user_id"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
}

// NewCommissionFinalizedEvent creates a new CommissionFinalizedEvent
func NewCommissionFinalizedEvent(c *MarketingCommission, actorID uuid.UUID) *CommissionFinalizedEvent {
	return &CommissionFinalizedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeCommissionFinalized, AggregateTypeCommission, c.ID, actorID),
		CommissionID:     c.ID,
		SessionID:        c.SessionID,
		MarketingUserID:  c.MarketingUserID,
		CalculatedAmount: c.CalculatedAmount,
	}
}

// PayablePaidEvent is raised when a trainer income, coordinator fee or commission is paid out
type PayablePaidEvent struct {
	shared.BaseDomainEvent
	Kind     PayableKind     `json:"kind"`
	RecordID uuid.UUID       `json:"record_id"`
	PayeeID  uuid.UUID       `json:"payee_id"`
	Amount   decimal.Decimal `json:"amount"`
	PaidDate string          `json:"paid_date"`
}

// NewPayablePaidEvent creates a new PayablePaidEvent
func NewPayablePaidEvent(kind PayableKind, recordID, payeeID uuid.UUID, amount decimal.Decimal, paidDate string, paidBy uuid.UUID) *PayablePaidEvent {
	return &PayablePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayablePaid, AggregateTypePayable, recordID, paidBy),
		Kind:            kind,
		RecordID:        recordID,
		PayeeID:         payeeID,
		Amount:          amount,
		PaidDate:        paidDate,
	}
}
