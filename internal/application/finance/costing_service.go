package finance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CostingService projects session profit and maintains the cost inputs
// behind it. The computed profit itself is never stored.
type CostingService struct {
	scope       TransactionScope
	companyRepo training.CompanyRepository
	logger      *zap.Logger
}

// NewCostingService creates a new CostingService
func NewCostingService(scope TransactionScope, companyRepo training.CompanyRepository, logger *zap.Logger) *CostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostingService{scope: scope, companyRepo: companyRepo, logger: logger}
}

// costingParts is everything stored about a session's costs
type costingParts struct {
	invoice        *finance.Invoice
	trainerIncomes []*finance.TrainerIncome
	coordinatorFee *finance.CoordinatorFee
	expenses       []*finance.CashExpense
	commission     *finance.MarketingCommission
}

// loadCostingParts reads a session's invoice, fees, expenses and commission.
// Missing single records come back nil.
func loadCostingParts(ctx context.Context, repos TransactionalRepositories, sessionID uuid.UUID) (*costingParts, error) {
	parts := &costingParts{}
	var err error

	parts.invoice, err = repos.InvoiceRepo().FindBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	parts.trainerIncomes, err = repos.TrainerIncomeRepo().FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	parts.coordinatorFee, err = repos.CoordinatorFeeRepo().FindBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	parts.expenses, err = repos.CashExpenseRepo().FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	parts.commission, err = repos.CommissionRepo().FindBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return parts, nil
}

// calculateCosting runs the costing formula. inv overrides the stored invoice
// so the issue path can use the invoice it is about to save.
func calculateCosting(inv *finance.Invoice, session *training.Session, parts *costingParts) finance.Costing {
	if inv == nil {
		inv = parts.invoice
	}
	in := finance.CostingInput{
		InvoiceAmount:   decimal.Zero,
		TaxRate:         decimal.Zero,
		TrainerFees:     finance.SumTrainerFees(parts.trainerIncomes),
		CoordinatorFees: decimal.Zero,
		CashExpenses:    finance.SumCashExpenses(parts.expenses),
	}
	if inv != nil {
		in.InvoiceAmount = inv.Subtotal
		in.TaxRate = inv.TaxRate
	}
	if parts.coordinatorFee != nil {
		in.CoordinatorFees = parts.coordinatorFee.Amount
	}
	switch {
	case parts.commission != nil && parts.commission.Status == finance.CommissionStatusVoided:
		voided := decimal.Zero
		in.FinalizedCommission = &voided
	case parts.commission != nil && parts.commission.Status.IsFinalized():
		amount := parts.commission.CalculatedAmount
		in.FinalizedCommission = &amount
	case session.HasMarketing():
		terms := finance.TermsFromAttribution(*session.Marketing)
		in.Commission = &terms
	}
	return finance.CalculateCosting(in)
}

// GetSessionCosting returns the profit projection of a session
func (s *CostingService) GetSessionCosting(ctx context.Context, sessionID uuid.UUID) (*CostingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "costing", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String())

	var session *training.Session
	var parts *costingParts
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.SessionRepo().FindByID(ctx, sessionID)
		if err != nil {
			return err
		}
		parts, err = loadCostingParts(ctx, repos, sessionID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return s.buildResponse(ctx, session, parts), nil
}

func (s *CostingService) buildResponse(ctx context.Context, session *training.Session, parts *costingParts) *CostingResponse {
	c := calculateCosting(nil, session, parts)

	resp := &CostingResponse{
		SessionID:             session.ID,
		SessionName:           session.Name,
		InvoiceTotal:          c.InvoiceAmount,
		TaxRate:               c.TaxRate,
		TaxAmount:             c.TaxAmount,
		GrossRevenue:          c.GrossRevenue,
		TrainerFeesTotal:      c.TrainerFees,
		CoordinatorFeesTotal:  c.CoordinatorFees,
		CashExpensesTotal:     c.CashExpenses,
		DirectCostsTotal:      c.DirectCosts,
		ProfitBeforeMarketing: c.ProfitBeforeMarketing,
		MarketingCommission:   c.MarketingCommission,
		Profit:                c.NetProfit,
		ProfitMargin:          c.ProfitMargin,
		TrainerFees:           make([]TrainerFeeResponse, 0, len(parts.trainerIncomes)),
		Expenses:              make([]ExpenseResponse, 0, len(parts.expenses)),
	}
	if company, err := s.companyRepo.FindByID(ctx, session.CompanyID); err == nil {
		resp.CompanyName = company.Name
	}

	for _, t := range parts.trainerIncomes {
		resp.TrainerFees = append(resp.TrainerFees, TrainerFeeResponse{
			ID:          t.ID,
			TrainerID:   t.TrainerID,
			TrainerName: t.TrainerName,
			Role:        string(t.Role),
			FeeAmount:   t.Amount,
			Remark:      t.Remark,
			Status:      string(t.Status),
			PaidDate:    t.PaidDate,
		})
	}
	if f := parts.coordinatorFee; f != nil {
		resp.CoordinatorFee = &CoordinatorFeeResponse{
			ID:              f.ID,
			CoordinatorID:   f.CoordinatorID,
			CoordinatorName: f.CoordinatorName,
			NumDays:         f.NumDays,
			DailyRate:       f.DailyRate,
			TotalFee:        f.Amount,
			Status:          string(f.Status),
			PaidDate:        f.PaidDate,
		}
	}
	for _, e := range parts.expenses {
		resp.Expenses = append(resp.Expenses, ExpenseResponse{
			ID:              e.ID,
			Category:        string(e.Category),
			Description:     e.Description,
			ExpenseType:     string(e.ExpenseType),
			Quantity:        e.Quantity,
			UnitPrice:       e.UnitPrice,
			PercentageRate:  e.PercentageRate,
			EstimatedAmount: e.EstimatedAmount,
			ActualAmount:    e.ActualAmount,
			Remark:          e.Remark,
		})
	}
	if session.HasMarketing() {
		m := session.Marketing
		resp.Marketing = &MarketingResponse{
			MarketingUserID:  m.UserID,
			CommissionType:   string(m.Type),
			CommissionRate:   m.Rate,
			FixedAmount:      m.FixedAmount,
			CalculatedAmount: c.MarketingCommission,
			Status:           string(finance.CommissionStatusPending),
		}
		if parts.commission != nil {
			resp.Marketing.Status = string(parts.commission.Status)
		}
	}
	return resp
}

// SaveTrainerFees replaces the pending trainer fees of a session. Paid fees are
// kept, and entries for a trainer who has already been paid are skipped.
func (s *CostingService) SaveTrainerFees(ctx context.Context, sessionID, actorID uuid.UUID, fees []TrainerFeeInput) (*CostingResponse, error) {
	return s.save(ctx, "save_trainer_fees", sessionID, actorID, func(repos TransactionalRepositories, parts *costingParts) (map[string]any, map[string]any, error) {
		paid := paidIncomes(parts.trainerIncomes)
		settled := make(map[uuid.UUID]bool, len(paid))
		for _, t := range paid {
			settled[t.TrainerID] = true
		}
		seen := make(map[uuid.UUID]bool, len(fees))
		incomes := make([]*finance.TrainerIncome, 0, len(fees))
		for _, f := range fees {
			if seen[f.TrainerID] {
				return nil, nil, shared.NewDomainError(shared.CodeValidation, "Trainer listed more than once: "+f.TrainerID.String())
			}
			seen[f.TrainerID] = true
			if settled[f.TrainerID] {
				s.logger.Info("skipping fee for trainer already paid",
					zap.String("session_id", sessionID.String()),
					zap.String("trainer_id", f.TrainerID.String()),
				)
				continue
			}
			income, err := finance.NewTrainerIncome(sessionID, f.TrainerID, f.TrainerName, finance.TrainerRole(f.Role), f.FeeAmount, f.Remark)
			if err != nil {
				return nil, nil, err
			}
			incomes = append(incomes, income)
		}
		if err := repos.TrainerIncomeRepo().ReplacePendingForSession(ctx, sessionID, incomes); err != nil {
			return nil, nil, err
		}
		before := map[string]any{
			"trainer_fees_total": finance.SumTrainerFees(parts.trainerIncomes).StringFixed(2),
			"trainer_count":      len(parts.trainerIncomes),
		}
		after := map[string]any{
			"trainer_fees_total": finance.SumTrainerFees(append(paid, incomes...)).StringFixed(2),
			"trainer_count":      len(paid) + len(incomes),
		}
		return before, after, nil
	})
}

func paidIncomes(incomes []*finance.TrainerIncome) []*finance.TrainerIncome {
	paid := make([]*finance.TrainerIncome, 0, len(incomes))
	for _, t := range incomes {
		if t.IsPaid() {
			paid = append(paid, t)
		}
	}
	return paid
}

// SaveCoordinatorFee creates or replaces the coordinator fee of a session
func (s *CostingService) SaveCoordinatorFee(ctx context.Context, sessionID, actorID uuid.UUID, input CoordinatorFeeInput) (*CostingResponse, error) {
	return s.save(ctx, "save_coordinator_fee", sessionID, actorID, func(repos TransactionalRepositories, parts *costingParts) (map[string]any, map[string]any, error) {
		fee, err := finance.NewCoordinatorFee(sessionID, input.CoordinatorID, input.CoordinatorName, input.NumDays, input.DailyRate, input.TotalFee)
		if err != nil {
			return nil, nil, err
		}
		before := map[string]any{"coordinator_fee": nil}
		if existing := parts.coordinatorFee; existing != nil {
			before["coordinator_fee"] = existing.Amount.StringFixed(2)
			if err := existing.Replace(fee); err != nil {
				return nil, nil, err
			}
			fee = existing
		}
		if err := repos.CoordinatorFeeRepo().Save(ctx, fee); err != nil {
			return nil, nil, err
		}
		return before, map[string]any{"coordinator_fee": fee.Amount.StringFixed(2)}, nil
	})
}

// SaveExpenses replaces the cash expenses of a session. Percentage expenses
// are estimated from the pre-tax invoice amount.
func (s *CostingService) SaveExpenses(ctx context.Context, sessionID, actorID uuid.UUID, inputs []ExpenseInput) (*CostingResponse, error) {
	return s.save(ctx, "save_expenses", sessionID, actorID, func(repos TransactionalRepositories, parts *costingParts) (map[string]any, map[string]any, error) {
		invoiceAmount := decimal.Zero
		if parts.invoice != nil {
			invoiceAmount = parts.invoice.Subtotal
		}
		expenses := make([]*finance.CashExpense, 0, len(inputs))
		for _, in := range inputs {
			e, err := finance.NewCashExpense(sessionID, finance.CashExpense{
				Category:        finance.ExpenseCategory(in.Category),
				Description:     in.Description,
				ExpenseType:     finance.ExpenseType(in.ExpenseType),
				Quantity:        in.Quantity,
				UnitPrice:       in.UnitPrice,
				PercentageRate:  in.PercentageRate,
				EstimatedAmount: in.EstimatedAmount,
				ActualAmount:    in.ActualAmount,
				Remark:          in.Remark,
			}, invoiceAmount)
			if err != nil {
				return nil, nil, err
			}
			expenses = append(expenses, e)
		}
		if err := repos.CashExpenseRepo().ReplaceForSession(ctx, sessionID, expenses); err != nil {
			return nil, nil, err
		}
		before := map[string]any{
			"cash_expenses_total": finance.SumCashExpenses(parts.expenses).StringFixed(2),
			"expense_count":       len(parts.expenses),
		}
		after := map[string]any{
			"cash_expenses_total": finance.SumCashExpenses(expenses).StringFixed(2),
			"expense_count":       len(expenses),
		}
		return before, after, nil
	})
}

// SaveMarketing sets the marketing attribution of a session and keeps its
// pending commission in step. It is rejected once the commission is finalized.
func (s *CostingService) SaveMarketing(ctx context.Context, sessionID, actorID uuid.UUID, input MarketingInput) (*CostingResponse, error) {
	attribution := training.MarketingAttribution{
		UserID:      input.MarketingUserID,
		Type:        training.CommissionType(input.CommissionType),
		Rate:        input.CommissionRate,
		FixedAmount: input.FixedAmount,
	}
	return s.saveWithSession(ctx, "save_marketing", sessionID, actorID, func(repos TransactionalRepositories, session *training.Session, parts *costingParts) (map[string]any, map[string]any, error) {
		if parts.commission != nil && parts.commission.Status.IsFinalized() {
			return nil, nil, shared.NewDomainError(shared.CodeInvalidState, "Commission has already been finalized")
		}
		before := marketingSnapshot(session)
		if err := session.SetMarketing(attribution); err != nil {
			return nil, nil, err
		}
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return nil, nil, err
		}

		terms := finance.TermsFromAttribution(attribution)
		commission := parts.commission
		if commission == nil {
			var err error
			commission, err = finance.NewMarketingCommission(sessionID, attribution.UserID, terms)
			if err != nil {
				return nil, nil, err
			}
		} else if err := commission.Reconfigure(attribution.UserID, terms); err != nil {
			return nil, nil, err
		}
		if err := repos.CommissionRepo().Save(ctx, commission); err != nil {
			return nil, nil, err
		}
		return before, marketingSnapshot(session), nil
	})
}

func marketingSnapshot(session *training.Session) map[string]any {
	if !session.HasMarketing() {
		return map[string]any{"marketing_user_id": nil}
	}
	m := session.Marketing
	return map[string]any{
		"marketing_user_id": m.UserID.String(),
		"commission_type":   string(m.Type),
		"commission_rate":   m.Rate.String(),
		"fixed_amount":      m.FixedAmount.StringFixed(2),
	}
}

// ExpenseCategories lists the expense categories with their default costing
func (s *CostingService) ExpenseCategories() []finance.ExpenseCategoryInfo {
	return finance.ExpenseCategories()
}

type costingWrite func(repos TransactionalRepositories, parts *costingParts) (map[string]any, map[string]any, error)

func (s *CostingService) save(ctx context.Context, operation string, sessionID, actorID uuid.UUID, write costingWrite) (*CostingResponse, error) {
	return s.saveWithSession(ctx, operation, sessionID, actorID, func(repos TransactionalRepositories, _ *training.Session, parts *costingParts) (map[string]any, map[string]any, error) {
		return write(repos, parts)
	})
}

// saveWithSession runs one costing write in a transaction and audits it as a
// session_costing update. The returned projection is read after the write.
func (s *CostingService) saveWithSession(
	ctx context.Context,
	operation string,
	sessionID, actorID uuid.UUID,
	write func(repos TransactionalRepositories, session *training.Session, parts *costingParts) (map[string]any, map[string]any, error),
) (*CostingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "costing", operation)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String())

	var session *training.Session
	var parts *costingParts
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.SessionRepo().FindByID(ctx, sessionID)
		if err != nil {
			return err
		}
		parts, err = loadCostingParts(ctx, repos, sessionID)
		if err != nil {
			return err
		}

		before, after, err := write(repos, session, parts)
		if err != nil {
			return err
		}
		if err := repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
			finance.AuditEntitySessionCosting, sessionID, finance.AuditActionUpdated, before, after, actorID, operation)); err != nil {
			return err
		}

		parts, err = loadCostingParts(ctx, repos, sessionID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("session costing updated",
		zap.String("session_id", sessionID.String()),
		zap.String("operation", operation),
		zap.String("actor_id", actorID.String()),
	)
	return s.buildResponse(ctx, session, parts), nil
}
