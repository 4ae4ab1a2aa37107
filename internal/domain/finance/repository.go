package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	Status    *InvoiceStatus
	CompanyID *uuid.UUID
	SessionID *uuid.UUID
	SortBy    string // Column name; unknown columns fall back to created_at
	SortOrder string // ASC or DESC
	Limit     int
	Offset    int
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice and locks its row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindBySessionID finds the invoice of a session
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*Invoice, error)

	// FindAll lists invoices newest first
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error)

	// Create inserts a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CountByStatus counts invoices per status
	CountByStatus(ctx context.Context) (map[InvoiceStatus]int64, error)

	// SumTotalByStatus sums total_amount over invoices in the given statuses
	SumTotalByStatus(ctx context.Context, statuses ...InvoiceStatus) (decimal.Decimal, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	InvoiceID *uuid.UUID
	Limit     int
	Offset    int
}

// PaymentRepository is the append-only payment ledger
type PaymentRepository interface {
	// Create appends a payment
	Create(ctx context.Context, payment *Payment) error

	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll lists payments newest first
	FindAll(ctx context.Context, filter PaymentFilter) ([]*Payment, error)

	// SumByInvoice sums all payments recorded against an invoice
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
}

// MarketingCommissionRepository defines persistence for marketing commissions
type MarketingCommissionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MarketingCommission, error)

	// FindByIDForUpdate finds a record and locks it for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*MarketingCommission, error)

	// FindBySessionID returns shared.ErrNotFound when the session has no commission
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*MarketingCommission, error)

	// FindByMarketingUser lists a marketing user's commissions newest first
	FindByMarketingUser(ctx context.Context, userID uuid.UUID) ([]*MarketingCommission, error)

	// Save upserts the commission, keyed by session
	Save(ctx context.Context, commission *MarketingCommission) error

	// SumByStatus sums calculated amounts over the given statuses
	SumByStatus(ctx context.Context, statuses ...CommissionStatus) (decimal.Decimal, error)
}

// TrainerIncomeRepository defines persistence for trainer fees
type TrainerIncomeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TrainerIncome, error)

	// FindByIDForUpdate finds a record and locks it for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*TrainerIncome, error)

	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*TrainerIncome, error)
	FindByTrainer(ctx context.Context, trainerID uuid.UUID) ([]*TrainerIncome, error)

	// ReplacePendingForSession deletes the session's pending fees and inserts incomes.
	// Paid fees are left untouched.
	ReplacePendingForSession(ctx context.Context, sessionID uuid.UUID, incomes []*TrainerIncome) error

	// Save updates a single fee
	Save(ctx context.Context, income *TrainerIncome) error

	SumByStatus(ctx context.Context, status PayableStatus) (decimal.Decimal, error)
}

// CoordinatorFeeRepository defines persistence for coordinator fees
type CoordinatorFeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CoordinatorFee, error)

	// FindByIDForUpdate finds a record and locks it for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CoordinatorFee, error)

	// FindBySessionID returns shared.ErrNotFound when the session has no fee
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*CoordinatorFee, error)
	FindByCoordinator(ctx context.Context, coordinatorID uuid.UUID) ([]*CoordinatorFee, error)

	// Save upserts the fee, keyed by session
	Save(ctx context.Context, fee *CoordinatorFee) error

	SumByStatus(ctx context.Context, status PayableStatus) (decimal.Decimal, error)
}

// CashExpenseRepository defines persistence for session cash expenses
type CashExpenseRepository interface {
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*CashExpense, error)

	// ReplaceForSession swaps the whole expense set of a session
	ReplaceForSession(ctx context.Context, sessionID uuid.UUID, expenses []*CashExpense) error
}

// Audit log page size bounds
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 1000
)

// AuditLogFilter narrows audit log queries
type AuditLogFilter struct {
	EntityType *AuditEntityType
	EntityID   *uuid.UUID
	Limit      int
}

// EffectiveLimit applies the default and the cap to Limit
func (f AuditLogFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultAuditLimit
	case f.Limit > MaxAuditLimit:
		return MaxAuditLimit
	}
	return f.Limit
}

// AuditLogRepository is append-only: there is no update or delete
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, filter AuditLogFilter) ([]*AuditEntry, error)
}
