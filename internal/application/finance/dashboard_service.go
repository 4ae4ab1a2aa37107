package finance

import (
	"context"

	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
)

// DashboardService aggregates the finance overview. Figures are computed
// with SQL aggregates on every call.
type DashboardService struct {
	invoiceRepo        finance.InvoiceRepository
	trainerIncomeRepo  finance.TrainerIncomeRepository
	coordinatorFeeRepo finance.CoordinatorFeeRepository
	commissionRepo     finance.MarketingCommissionRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	invoiceRepo finance.InvoiceRepository,
	trainerIncomeRepo finance.TrainerIncomeRepository,
	coordinatorFeeRepo finance.CoordinatorFeeRepository,
	commissionRepo finance.MarketingCommissionRepository,
) *DashboardService {
	return &DashboardService{
		invoiceRepo:        invoiceRepo,
		trainerIncomeRepo:  trainerIncomeRepo,
		coordinatorFeeRepo: coordinatorFeeRepo,
		commissionRepo:     commissionRepo,
	}
}

// GetDashboard returns invoice counts, receivables and outstanding payables
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "get")
	defer span.End()

	resp := &DashboardResponse{}

	counts, err := s.invoiceRepo.CountByStatus(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, n := range counts {
		resp.Invoices.Total += n
	}
	resp.Invoices.Draft = counts[finance.InvoiceStatusAutoDraft] + counts[finance.InvoiceStatusFinanceReview]
	resp.Invoices.Approved = counts[finance.InvoiceStatusApproved]
	resp.Invoices.Issued = counts[finance.InvoiceStatusIssued]
	resp.Invoices.Paid = counts[finance.InvoiceStatusPaid]
	resp.Invoices.Cancelled = counts[finance.InvoiceStatusCancelled]

	if resp.Financials.TotalIssued, err = s.invoiceRepo.SumTotalByStatus(ctx, finance.InvoiceStatusIssued, finance.InvoiceStatusPaid); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.Financials.TotalCollected, err = s.invoiceRepo.SumTotalByStatus(ctx, finance.InvoiceStatusPaid); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp.Financials.OutstandingReceivables = resp.Financials.TotalIssued.Sub(resp.Financials.TotalCollected)

	if resp.Payables.TrainerPending, err = s.trainerIncomeRepo.SumByStatus(ctx, finance.PayableStatusPending); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.Payables.CoordinatorPending, err = s.coordinatorFeeRepo.SumByStatus(ctx, finance.PayableStatusPending); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.Payables.CommissionPending, err = s.commissionRepo.SumByStatus(ctx, finance.CommissionStatusPending, finance.CommissionStatusApproved); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp.Payables.PendingTotal = resp.Payables.TrainerPending.
		Add(resp.Payables.CoordinatorPending).
		Add(resp.Payables.CommissionPending)

	return resp, nil
}

// OutstandingInvoices counts issued invoices awaiting payment
func (s *DashboardService) OutstandingInvoices(ctx context.Context) (int64, error) {
	counts, err := s.invoiceRepo.CountByStatus(ctx)
	if err != nil {
		return 0, err
	}
	return counts[finance.InvoiceStatusIssued], nil
}

// PendingPayableCents sums pending trainer, coordinator and commission
// amounts in cents
func (s *DashboardService) PendingPayableCents(ctx context.Context) (int64, error) {
	trainer, err := s.trainerIncomeRepo.SumByStatus(ctx, finance.PayableStatusPending)
	if err != nil {
		return 0, err
	}
	coordinator, err := s.coordinatorFeeRepo.SumByStatus(ctx, finance.PayableStatusPending)
	if err != nil {
		return 0, err
	}
	commission, err := s.commissionRepo.SumByStatus(ctx, finance.CommissionStatusPending, finance.CommissionStatusApproved)
	if err != nil {
		return 0, err
	}
	return trainer.Add(coordinator).Add(commission).Shift(2).Round(0).IntPart(), nil
}
