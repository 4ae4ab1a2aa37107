package finance

import (
	"context"

	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/training"
)

// TransactionScope provides transactional access to finance repositories.
// All repository operations executed inside fn share one database transaction
// and are committed or rolled back together, audit entries included.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all finance repositories within a transaction.
type TransactionalRepositories interface {
	InvoiceRepo() finance.InvoiceRepository
	InvoiceCounter() finance.InvoiceCounter
	PaymentRepo() finance.PaymentRepository
	CommissionRepo() finance.MarketingCommissionRepository
	TrainerIncomeRepo() finance.TrainerIncomeRepository
	CoordinatorFeeRepo() finance.CoordinatorFeeRepository
	CashExpenseRepo() finance.CashExpenseRepository
	AuditRepo() finance.AuditLogRepository
	// SessionRepo is needed to mirror invoice status onto the session
	SessionRepo() training.SessionRepository
}

// Repositories bundles the repositories handed to a NoOpTransactionScope
type Repositories struct {
	Invoices        finance.InvoiceRepository
	Counter         finance.InvoiceCounter
	Payments        finance.PaymentRepository
	Commissions     finance.MarketingCommissionRepository
	TrainerIncomes  finance.TrainerIncomeRepository
	CoordinatorFees finance.CoordinatorFeeRepository
	CashExpenses    finance.CashExpenseRepository
	Audit           finance.AuditLogRepository
	Sessions        training.SessionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() finance.InvoiceRepository {
	return s.repos.Invoices
}

// InvoiceCounter returns the invoice number counter.
func (s *NoOpTransactionScope) InvoiceCounter() finance.InvoiceCounter {
	return s.repos.Counter
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() finance.PaymentRepository {
	return s.repos.Payments
}

// CommissionRepo returns the marketing commission repository.
func (s *NoOpTransactionScope) CommissionRepo() finance.MarketingCommissionRepository {
	return s.repos.Commissions
}

// TrainerIncomeRepo returns the trainer income repository.
func (s *NoOpTransactionScope) TrainerIncomeRepo() finance.TrainerIncomeRepository {
	return s.repos.TrainerIncomes
}

// CoordinatorFeeRepo returns the coordinator fee repository.
func (s *NoOpTransactionScope) CoordinatorFeeRepo() finance.CoordinatorFeeRepository {
	return s.repos.CoordinatorFees
}

// CashExpenseRepo returns the cash expense repository.
func (s *NoOpTransactionScope) CashExpenseRepo() finance.CashExpenseRepository {
	return s.repos.CashExpenses
}

// AuditRepo returns the audit log repository.
func (s *NoOpTransactionScope) AuditRepo() finance.AuditLogRepository {
	return s.repos.Audit
}

// SessionRepo returns the training session repository.
func (s *NoOpTransactionScope) SessionRepo() training.SessionRepository {
	return s.repos.Sessions
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
