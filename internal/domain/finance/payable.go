package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
)

// PayableKind identifies which ledger a payable lives in.
// The values double as audit entity types.
type PayableKind string

const (
	PayableKindTrainerIncome  PayableKind = "trainer_income"
	PayableKindCoordinatorFee PayableKind = "coordinator_fee"
	PayableKindCommission     PayableKind = "marketing_commission"
)

// PayableStatus is the payout status of trainer income and coordinator fees
type PayableStatus string

const (
	PayableStatusPending PayableStatus = "pending"
	PayableStatusPaid    PayableStatus = "paid"
)

// PaidDateLayout is the format of paid_date on every payable
const PaidDateLayout = time.DateOnly

// TrainerRole distinguishes the lead trainer from assistants
type TrainerRole string

const (
	TrainerRoleChief   TrainerRole = "chief_trainer"
	TrainerRoleTrainer TrainerRole = "trainer"
)

// IsValid checks if the trainer role is known
func (r TrainerRole) IsValid() bool {
	return r == TrainerRoleChief || r == TrainerRoleTrainer
}

// Payout holds the paid stamp shared by all payables
type Payout struct {
	Status   PayableStatus
	PaidDate string
	PaidBy   *uuid.UUID
}

// IsPaid reports whether the payable has been paid out
func (p Payout) IsPaid() bool {
	return p.Status == PayableStatusPaid
}

// markPaid flips pending to paid; a second call leaves the first stamp intact
func (p *Payout) markPaid(paidBy uuid.UUID, paidDate string) bool {
	if p.IsPaid() {
		return false
	}
	p.Status = PayableStatusPaid
	p.PaidDate = paidDate
	p.PaidBy = &paidBy
	return true
}

// TrainerIncome is the fee owed to one trainer for one session
type TrainerIncome struct {
	shared.BaseEntity
	Payout
	SessionID   uuid.UUID
	TrainerID   uuid.UUID
	TrainerName string
	Role        TrainerRole
	Amount      decimal.Decimal
	Remark      string
}

// NewTrainerIncome creates a pending trainer fee
func NewTrainerIncome(sessionID, trainerID uuid.UUID, trainerName string, role TrainerRole, amount decimal.Decimal, remark string) (*TrainerIncome, error) {
	if trainerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Trainer ID cannot be empty")
	}
	if role == "" {
		role = TrainerRoleTrainer
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Trainer role must be chief_trainer or trainer")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Trainer fee cannot be negative")
	}
	return &TrainerIncome{
		BaseEntity:  shared.NewBaseEntity(),
		Payout:      Payout{Status: PayableStatusPending},
		SessionID:   sessionID,
		TrainerID:   trainerID,
		TrainerName: strings.TrimSpace(trainerName),
		Role:        role,
		Amount:      amount.Round(2),
		Remark:      remark,
	}, nil
}

// MarkPaid pays the trainer; it reports false when the record was already paid
func (t *TrainerIncome) MarkPaid(paidBy uuid.UUID, paidDate string) bool {
	changed := t.markPaid(paidBy, paidDate)
	if changed {
		t.UpdatedAt = time.Now()
	}
	return changed
}

// CoordinatorFee is the fee owed to the coordinator of a session
type CoordinatorFee struct {
	shared.BaseEntity
	Payout
	SessionID       uuid.UUID
	CoordinatorID   uuid.UUID
	CoordinatorName string
	NumDays         int
	DailyRate       decimal.Decimal
	Amount          decimal.Decimal
}

// NewCoordinatorFee creates a pending coordinator fee. A zero total is derived
// from days x daily rate.
func NewCoordinatorFee(sessionID, coordinatorID uuid.UUID, name string, numDays int, dailyRate, total decimal.Decimal) (*CoordinatorFee, error) {
	if coordinatorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Coordinator ID cannot be empty")
	}
	if numDays < 0 || dailyRate.IsNegative() || total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Coordinator fee values cannot be negative")
	}
	if total.IsZero() {
		total = dailyRate.Mul(decimal.NewFromInt(int64(numDays)))
	}
	return &CoordinatorFee{
		BaseEntity:      shared.NewBaseEntity(),
		Payout:          Payout{Status: PayableStatusPending},
		SessionID:       sessionID,
		CoordinatorID:   coordinatorID,
		CoordinatorName: strings.TrimSpace(name),
		NumDays:         numDays,
		DailyRate:       dailyRate.Round(2),
		Amount:          total.Round(2),
	}, nil
}

// Replace overwrites the fee terms of an unpaid fee, keeping its identity
func (f *CoordinatorFee) Replace(other *CoordinatorFee) error {
	if f.IsPaid() {
		return shared.NewDomainError(shared.CodeInvalidState, "Coordinator fee has already been paid")
	}
	f.CoordinatorID = other.CoordinatorID
	f.CoordinatorName = other.CoordinatorName
	f.NumDays = other.NumDays
	f.DailyRate = other.DailyRate
	f.Amount = other.Amount
	f.UpdatedAt = time.Now()
	return nil
}

// MarkPaid pays the coordinator; it reports false when the record was already paid
func (f *CoordinatorFee) MarkPaid(paidBy uuid.UUID, paidDate string) bool {
	changed := f.markPaid(paidBy, paidDate)
	if changed {
		f.UpdatedAt = time.Now()
	}
	return changed
}

// PaidDateIn formats today's date in loc as a paid_date value
func PaidDateIn(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format(PaidDateLayout)
}

// IncomeSummary splits a set of payable amounts by payout status
type IncomeSummary struct {
	Total   decimal.Decimal
	Paid    decimal.Decimal
	Pending decimal.Decimal
}

// Add accumulates one record into the summary
func (s *IncomeSummary) Add(amount decimal.Decimal, paid bool) {
	s.Total = s.Total.Add(amount)
	if paid {
		s.Paid = s.Paid.Add(amount)
	} else {
		s.Pending = s.Pending.Add(amount)
	}
}

// String is used in log fields
func (s IncomeSummary) String() string {
	return fmt.Sprintf("total=%s paid=%s pending=%s", s.Total.StringFixed(2), s.Paid.StringFixed(2), s.Pending.StringFixed(2))
}
