package finance

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusAutoDraft     InvoiceStatus = "auto_draft"     // Created by the system with the session
	InvoiceStatusFinanceReview InvoiceStatus = "finance_review" // Being edited by finance
	InvoiceStatusApproved      InvoiceStatus = "approved"       // Approved, waiting to be issued
	InvoiceStatusIssued        InvoiceStatus = "issued"         // Sent to the client, payments accepted
	InvoiceStatusPaid          InvoiceStatus = "paid"           // Payments cover the total
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"      // Voided, never deleted
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusAutoDraft, InvoiceStatusFinanceReview, InvoiceStatusApproved,
		InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsEditable returns true while finance may still change the invoice's fields
func (s InvoiceStatus) IsEditable() bool {
	return s == InvoiceStatusAutoDraft || s == InvoiceStatusFinanceReview
}

// IsTerminal returns true if no further transition is possible
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// AcceptsPayments returns true if payments may be recorded against the invoice
func (s InvoiceStatus) AcceptsPayments() bool {
	return s == InvoiceStatusIssued || s == InvoiceStatusPaid
}

// LineItem is one billable entry on an invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Normalize fills Amount from Quantity x UnitPrice when it was left empty
func (l LineItem) Normalize() LineItem {
	if l.Amount.IsZero() && !l.Quantity.IsZero() {
		l.Amount = l.Quantity.Mul(l.UnitPrice).Round(2)
	}
	return l
}

// Invoice is the financial document charging one company for one training session.
// CompanyName and ProgrammeName are captured when the invoice is created and are
// not refreshed if the company or programme is renamed later.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber      string
	SessionID          uuid.UUID
	CompanyID          uuid.UUID
	CompanyName        string
	ProgrammeName      string
	TrainingStartDate  time.Time
	TrainingEndDate    time.Time
	Venue              string
	Headcount          int
	LineItems          []LineItem
	Subtotal           decimal.Decimal
	TaxRate            decimal.Decimal
	TaxAmount          decimal.Decimal
	TotalAmount        decimal.Decimal
	Notes              string
	Status             InvoiceStatus
	CreatedBy          uuid.UUID
	ApprovedBy         *uuid.UUID
	ApprovedAt         *time.Time
	IssuedBy           *uuid.UUID
	IssuedAt           *time.Time
	CancelledBy        *uuid.UUID
	CancelledAt        *time.Time
	CancellationReason string
	PaidAt             *time.Time
}

// NewAutoDraftInvoice creates the zero-valued draft that accompanies a new session
func NewAutoDraftInvoice(
	invoiceNumber string,
	sessionID uuid.UUID,
	companyID uuid.UUID,
	companyName string,
	programmeName string,
	start, end time.Time,
	venue string,
	headcount int,
	createdBy uuid.UUID,
) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice number cannot be empty")
	}
	if sessionID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Session ID cannot be empty")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		SessionID:         sessionID,
		CompanyID:         companyID,
		CompanyName:       companyName,
		ProgrammeName:     programmeName,
		TrainingStartDate: start,
		TrainingEndDate:   end,
		Venue:             venue,
		Headcount:         headcount,
		LineItems:         []LineItem{},
		Subtotal:          decimal.Zero,
		TaxRate:           decimal.Zero,
		TaxAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		Status:            InvoiceStatusAutoDraft,
		CreatedBy:         createdBy,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// InvoiceUpdate carries a partial update; nil fields are left unchanged.
// TotalAmount, when given without Subtotal, is taken as the pre-tax amount.
type InvoiceUpdate struct {
	CompanyName       *string
	ProgrammeName     *string
	TrainingStartDate *time.Time
	TrainingEndDate   *time.Time
	Venue             *string
	Headcount         *int
	LineItems         *[]LineItem
	Subtotal          *decimal.Decimal
	TaxRate           *decimal.Decimal
	TotalAmount       *decimal.Decimal
	Notes             *string
	Status            *InvoiceStatus
}

// Update applies a partial update while the invoice is editable.
// It returns the previous status so callers can mirror a status change.
func (inv *Invoice) Update(u InvoiceUpdate, actorID uuid.UUID) (InvoiceStatus, error) {
	previous := inv.Status
	if !inv.Status.IsEditable() {
		return previous, shared.NewDomainError(shared.CodeInvalidState,
			"Cannot modify issued/paid invoice. Create a revision instead.")
	}
	if u.Status != nil && *u.Status != inv.Status && !u.Status.IsEditable() {
		return previous, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Status %s must be reached through its own action", *u.Status))
	}
	if u.TaxRate != nil && (u.TaxRate.IsNegative() || u.TaxRate.GreaterThan(decimal.NewFromInt(100))) {
		return previous, shared.NewDomainError(shared.CodeValidation, "Tax rate must be between 0 and 100")
	}
	for _, amt := range []*decimal.Decimal{u.Subtotal, u.TotalAmount} {
		if amt != nil && amt.IsNegative() {
			return previous, shared.NewDomainError(shared.CodeValidation, "Amounts cannot be negative")
		}
	}
	if u.Headcount != nil && *u.Headcount < 0 {
		return previous, shared.NewDomainError(shared.CodeValidation, "Headcount cannot be negative")
	}

	if u.CompanyName != nil {
		inv.CompanyName = *u.CompanyName
	}
	if u.ProgrammeName != nil {
		inv.ProgrammeName = *u.ProgrammeName
	}
	if u.TrainingStartDate != nil {
		inv.TrainingStartDate = *u.TrainingStartDate
	}
	if u.TrainingEndDate != nil {
		inv.TrainingEndDate = *u.TrainingEndDate
	}
	if u.Venue != nil {
		inv.Venue = *u.Venue
	}
	if u.Headcount != nil {
		inv.Headcount = *u.Headcount
	}
	if u.Notes != nil {
		inv.Notes = *u.Notes
	}
	if u.LineItems != nil {
		items := make([]LineItem, 0, len(*u.LineItems))
		for _, li := range *u.LineItems {
			items = append(items, li.Normalize())
		}
		inv.LineItems = items
	}

	if u.Subtotal != nil || u.TotalAmount != nil || u.TaxRate != nil || u.LineItems != nil {
		base := inv.Subtotal
		switch {
		case u.Subtotal != nil:
			base = *u.Subtotal
		case u.TotalAmount != nil:
			base = *u.TotalAmount
		case u.LineItems != nil:
			base = inv.LineItemsTotal()
		}
		rate := inv.TaxRate
		if u.TaxRate != nil {
			rate = *u.TaxRate
		}
		inv.applyAmounts(base, rate)
	}

	if u.Status != nil {
		inv.Status = *u.Status
	}

	inv.touch()
	if previous != inv.Status {
		inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, previous, actorID, ""))
	}
	return previous, nil
}

// applyAmounts recomputes tax and total from the pre-tax subtotal
func (inv *Invoice) applyAmounts(subtotal, taxRate decimal.Decimal) {
	inv.Subtotal = subtotal.Round(2)
	inv.TaxRate = taxRate
	inv.TaxAmount = CalculateTax(inv.Subtotal, taxRate)
	inv.TotalAmount = inv.Subtotal.Add(inv.TaxAmount)
}

// LineItemsTotal sums the line item amounts
func (inv *Invoice) LineItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range inv.LineItems {
		total = total.Add(li.Amount)
	}
	return total
}

// Approve moves an editable invoice to approved
func (inv *Invoice) Approve(approverID uuid.UUID) error {
	if !inv.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot approve invoice in %s status", inv.Status))
	}
	previous := inv.Status
	now := time.Now()
	inv.Status = InvoiceStatusApproved
	inv.ApprovedBy = &approverID
	inv.ApprovedAt = &now
	inv.touch()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, previous, approverID, ""))
	return nil
}

// Issue moves an approved invoice to issued
func (inv *Invoice) Issue(issuerID uuid.UUID) error {
	if inv.Status != InvoiceStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState, "Only approved invoices can be issued")
	}
	now := time.Now()
	inv.Status = InvoiceStatusIssued
	inv.IssuedBy = &issuerID
	inv.IssuedAt = &now
	inv.touch()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, InvoiceStatusApproved, issuerID, ""))
	return nil
}

// Cancel voids the invoice from any non-terminal status
func (inv *Invoice) Cancel(cancellerID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancellation reason is required")
	}
	if inv.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	previous := inv.Status
	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledBy = &cancellerID
	inv.CancelledAt = &now
	inv.CancellationReason = reason
	inv.touch()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, previous, cancellerID, reason))
	return nil
}

// MarkPaid flips an issued invoice to paid once payments cover the total.
// It returns false without error if the invoice is already paid.
func (inv *Invoice) MarkPaid(paidTotal decimal.Decimal) (bool, error) {
	if inv.Status == InvoiceStatusPaid {
		return false, nil
	}
	if inv.Status != InvoiceStatusIssued {
		return false, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot mark invoice paid in %s status", inv.Status))
	}
	if paidTotal.LessThan(inv.TotalAmount) {
		return false, nil
	}
	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &now
	inv.touch()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, InvoiceStatusIssued, uuid.Nil, ""))
	return true, nil
}

// IsFullyCovered reports whether the given payment sum settles the invoice
func (inv *Invoice) IsFullyCovered(paidTotal decimal.Decimal) bool {
	return paidTotal.GreaterThanOrEqual(inv.TotalAmount)
}

func (inv *Invoice) touch() {
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// Snapshot returns a JSON-friendly copy of the invoice for audit before/after values
func (inv *Invoice) Snapshot() map[string]any {
	return map[string]any{
		"id":                  inv.ID.String(),
		"invoice_number":      inv.InvoiceNumber,
		"session_id":          inv.SessionID.String(),
		"company_id":          inv.CompanyID.String(),
		"company_name":        inv.CompanyName,
		"programme_name":      inv.ProgrammeName,
		"venue":               inv.Venue,
		"headcount":           inv.Headcount,
		"line_items":          slices.Clone(inv.LineItems),
		"subtotal":            inv.Subtotal.StringFixed(2),
		"tax_rate":            inv.TaxRate.String(),
		"tax_amount":          inv.TaxAmount.StringFixed(2),
		"total_amount":        inv.TotalAmount.StringFixed(2),
		"notes":               inv.Notes,
		"status":              string(inv.Status),
		"cancellation_reason": inv.CancellationReason,
		"version":             inv.Version,
	}
}

// CalculateTax returns amount x rate / 100 rounded to cents
func CalculateTax(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
}
