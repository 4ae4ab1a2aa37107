package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
)

// CommissionStatus is the lifecycle status of a marketing commission
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"  // Configured, amount not final
	CommissionStatusApproved CommissionStatus = "approved" // Finalized at invoice issue
	CommissionStatusPaid     CommissionStatus = "paid"
	CommissionStatusVoided   CommissionStatus = "voided" // Invoice cancelled before payout
)

// IsFinalized reports whether the calculated amount is locked
func (s CommissionStatus) IsFinalized() bool {
	return s == CommissionStatusApproved || s == CommissionStatusPaid || s == CommissionStatusVoided
}

// CommissionTerms are the agreed commission parameters
type CommissionTerms struct {
	Type        training.CommissionType
	Rate        decimal.Decimal
	FixedAmount decimal.Decimal
}

// TermsFromAttribution copies the terms captured on a session
func TermsFromAttribution(m training.MarketingAttribution) CommissionTerms {
	return CommissionTerms{Type: m.Type, Rate: m.Rate, FixedAmount: m.FixedAmount}
}

// Amount computes the commission on the given base, never below zero
func (t CommissionTerms) Amount(base decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch t.Type {
	case training.CommissionPercentage:
		amount = base.Mul(t.Rate).Div(decimal.NewFromInt(100)).Round(2)
	case training.CommissionFixed:
		amount = t.FixedAmount.Round(2)
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// MarketingCommission is the commission owed to the marketing user of a session.
// There is at most one per session.
type MarketingCommission struct {
	shared.BaseEntity
	SessionID        uuid.UUID
	MarketingUserID  uuid.UUID
	Terms            CommissionTerms
	CalculatedAmount decimal.Decimal
	InvoiceID        *uuid.UUID
	Status           CommissionStatus
	FinalizedAt      *time.Time
	PaidDate         string
	PaidBy           *uuid.UUID
}

// NewMarketingCommission creates a pending commission for a session
func NewMarketingCommission(sessionID, marketingUserID uuid.UUID, terms CommissionTerms) (*MarketingCommission, error) {
	if sessionID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Session ID cannot be empty")
	}
	if marketingUserID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Marketing user cannot be empty")
	}
	return &MarketingCommission{
		BaseEntity:       shared.NewBaseEntity(),
		SessionID:        sessionID,
		MarketingUserID:  marketingUserID,
		Terms:            terms,
		CalculatedAmount: decimal.Zero,
		Status:           CommissionStatusPending,
	}, nil
}

// Reconfigure replaces the terms of a commission that is not yet finalized
func (c *MarketingCommission) Reconfigure(marketingUserID uuid.UUID, terms CommissionTerms) error {
	if c.Status.IsFinalized() {
		return shared.NewDomainError(shared.CodeInvalidState, "Commission has already been finalized")
	}
	c.MarketingUserID = marketingUserID
	c.Terms = terms
	c.UpdatedAt = time.Now()
	return nil
}

// Finalize fixes the calculated amount against the issued invoice. It can only
// happen once; the amount is never recalculated afterwards.
func (c *MarketingCommission) Finalize(invoiceID uuid.UUID, base decimal.Decimal) error {
	if c.Status.IsFinalized() {
		return shared.NewDomainError(shared.CodeInvalidState, "Commission has already been finalized")
	}
	now := time.Now()
	c.CalculatedAmount = c.Terms.Amount(base)
	c.InvoiceID = &invoiceID
	c.Status = CommissionStatusApproved
	c.FinalizedAt = &now
	c.UpdatedAt = now
	return nil
}

// MarkPaid pays out an approved commission. It reports false when already paid.
func (c *MarketingCommission) MarkPaid(paidBy uuid.UUID, paidDate string) (bool, error) {
	switch c.Status {
	case CommissionStatusPaid:
		return false, nil
	case CommissionStatusPending:
		return false, shared.NewDomainError(shared.CodeInvalidState,
			"Commission is not finalized yet; issue the invoice first")
	case CommissionStatusVoided:
		return false, shared.NewDomainError(shared.CodeInvalidState,
			"Commission was voided with its invoice")
	}
	c.Status = CommissionStatusPaid
	c.PaidDate = paidDate
	c.PaidBy = &paidBy
	c.UpdatedAt = time.Now()
	return true, nil
}

// Void withdraws an unpaid commission when its invoice is cancelled. It reports
// false for a commission that is already paid or voided.
func (c *MarketingCommission) Void() bool {
	if c.Status == CommissionStatusPaid || c.Status == CommissionStatusVoided {
		return false
	}
	c.Status = CommissionStatusVoided
	c.UpdatedAt = time.Now()
	return true
}

// Snapshot returns the audit representation of the commission
func (c *MarketingCommission) Snapshot() map[string]any {
	return map[string]any{
		"id":                c.ID.String(),
		"session_id":        c.SessionID.String(),
		"marketing_user_id": c.MarketingUserID.String(),
		"commission_type":   string(c.Terms.Type),
		"commission_rate":   c.Terms.Rate.String(),
		"fixed_amount":      c.Terms.FixedAmount.StringFixed(2),
		"calculated_amount": c.CalculatedAmount.StringFixed(2),
		"status":            string(c.Status),
	}
}
