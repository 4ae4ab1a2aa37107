package persistence

import (
	"context"

	"github.com/bwmarrin/snowflake"
	appfinance "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/training"
	"gorm.io/gorm"
)

// GormFinanceTransactionScope implements TransactionScope using GORM transactions.
type GormFinanceTransactionScope struct {
	db  *gorm.DB
	ids *snowflake.Node
}

// NewGormFinanceTransactionScope creates a new GormFinanceTransactionScope.
// ids generates audit entry IDs for entries appended inside the transaction.
func NewGormFinanceTransactionScope(db *gorm.DB, ids *snowflake.Node) *GormFinanceTransactionScope {
	return &GormFinanceTransactionScope{db: db, ids: ids}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormFinanceTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormFinanceRepositories{tx: tx, ids: s.ids})
	})
}

// gormFinanceRepositories provides access to all finance repositories within a transaction.
type gormFinanceRepositories struct {
	tx  *gorm.DB
	ids *snowflake.Node
}

func (r *gormFinanceRepositories) InvoiceRepo() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormFinanceRepositories) InvoiceCounter() finance.InvoiceCounter {
	return NewGormInvoiceCounterRepository(r.tx)
}

func (r *gormFinanceRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormFinanceRepositories) CommissionRepo() finance.MarketingCommissionRepository {
	return NewGormMarketingCommissionRepository(r.tx)
}

func (r *gormFinanceRepositories) TrainerIncomeRepo() finance.TrainerIncomeRepository {
	return NewGormTrainerIncomeRepository(r.tx)
}

func (r *gormFinanceRepositories) CoordinatorFeeRepo() finance.CoordinatorFeeRepository {
	return NewGormCoordinatorFeeRepository(r.tx)
}

func (r *gormFinanceRepositories) CashExpenseRepo() finance.CashExpenseRepository {
	return NewGormCashExpenseRepository(r.tx)
}

func (r *gormFinanceRepositories) AuditRepo() finance.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx, r.ids)
}

func (r *gormFinanceRepositories) SessionRepo() training.SessionRepository {
	return NewGormSessionRepository(r.tx)
}

// Ensure GormFinanceTransactionScope implements TransactionScope
var _ appfinance.TransactionScope = (*GormFinanceTransactionScope)(nil)

// Ensure gormFinanceRepositories implements TransactionalRepositories
var _ appfinance.TransactionalRepositories = (*gormFinanceRepositories)(nil)
