package training

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
)

// CommissionType is how a marketing commission is computed
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFixed      CommissionType = "fixed"
)

// IsValid returns true if the commission type is known
func (t CommissionType) IsValid() bool {
	return t == CommissionPercentage || t == CommissionFixed
}

// MarketingAttribution is the marketing user credited for a session and
// the commission terms agreed with them.
type MarketingAttribution struct {
	UserID      uuid.UUID
	Type        CommissionType
	Rate        decimal.Decimal
	FixedAmount decimal.Decimal
}

// Validate checks the attribution terms
func (m MarketingAttribution) Validate() error {
	if m.UserID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Marketing user is required")
	}
	if !m.Type.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Commission type must be percentage or fixed")
	}
	if m.Type == CommissionPercentage && (m.Rate.IsNegative() || m.Rate.GreaterThan(decimal.NewFromInt(100))) {
		return shared.NewDomainError(shared.CodeValidation, "Commission rate must be between 0 and 100")
	}
	if m.Type == CommissionFixed && m.FixedAmount.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Commission fixed amount cannot be negative")
	}
	return nil
}

// Session is one scheduled run of a training programme for a client company.
// It holds a denormalized mirror of its invoice for display only; the invoice
// itself is the financial record.
type Session struct {
	shared.BaseAggregateRoot
	Name             string
	CompanyID        uuid.UUID
	ProgrammeID      uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	Venue            string
	ParticipantCount int
	Marketing        *MarketingAttribution
	InvoiceID        *uuid.UUID
	InvoiceNumber    string
	InvoiceStatus    string
	CreatedBy        uuid.UUID
}

// NewSession creates a session and records a SessionCreated event
func NewSession(name string, companyID, programmeID uuid.UUID, start, end time.Time, venue string, participants int, createdBy uuid.UUID) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Session name cannot be empty")
	}
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Company is required")
	}
	if programmeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Programme is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Start and end dates are required")
	}
	if end.Before(start) {
		return nil, shared.NewDomainError(shared.CodeValidation, "End date cannot be before start date")
	}
	if participants < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Participant count cannot be negative")
	}

	s := &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CompanyID:         companyID,
		ProgrammeID:       programmeID,
		StartDate:         start,
		EndDate:           end,
		Venue:             strings.TrimSpace(venue),
		ParticipantCount:  participants,
		CreatedBy:         createdBy,
	}
	s.AddDomainEvent(NewSessionCreatedEvent(s))
	return s, nil
}

// SetMarketing attaches or replaces the marketing attribution
func (s *Session) SetMarketing(m MarketingAttribution) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.Marketing = &m
	s.UpdatedAt = time.Now()
	return nil
}

// HasMarketing reports whether the session credits a marketing user
func (s *Session) HasMarketing() bool {
	return s.Marketing != nil && s.Marketing.UserID != uuid.Nil
}

// HasInvoice reports whether an invoice has already been linked
func (s *Session) HasInvoice() bool {
	return s.InvoiceID != nil && *s.InvoiceID != uuid.Nil
}

// LinkInvoice back-fills the invoice reference and status mirror
func (s *Session) LinkInvoice(invoiceID uuid.UUID, number, status string) {
	s.InvoiceID = &invoiceID
	s.InvoiceNumber = number
	s.InvoiceStatus = status
	s.UpdatedAt = time.Now()
}

// DateRange formats the session dates for display, e.g. "02 Jan 2026 - 04 Jan 2026"
func (s *Session) DateRange() string {
	return FormatDateRange(s.StartDate, s.EndDate)
}

// FormatDateRange renders a start/end pair the way income reports show it
func FormatDateRange(start, end time.Time) string {
	const layout = "02 Jan 2006"
	if start.IsZero() {
		return ""
	}
	if end.IsZero() || start.Format(layout) == end.Format(layout) {
		return start.Format(layout)
	}
	return start.Format(layout) + " - " + end.Format(layout)
}
