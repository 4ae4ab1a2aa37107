package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"go.uber.org/zap"
)

// IncomeService serves the trainer, coordinator and marketing income views
type IncomeService struct {
	trainerIncomeRepo  finance.TrainerIncomeRepository
	coordinatorFeeRepo finance.CoordinatorFeeRepository
	commissionRepo     finance.MarketingCommissionRepository
	sessionRepo        training.SessionRepository
	companyRepo        training.CompanyRepository
	logger             *zap.Logger
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(
	trainerIncomeRepo finance.TrainerIncomeRepository,
	coordinatorFeeRepo finance.CoordinatorFeeRepository,
	commissionRepo finance.MarketingCommissionRepository,
	sessionRepo training.SessionRepository,
	companyRepo training.CompanyRepository,
	logger *zap.Logger,
) *IncomeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncomeService{
		trainerIncomeRepo:  trainerIncomeRepo,
		coordinatorFeeRepo: coordinatorFeeRepo,
		commissionRepo:     commissionRepo,
		sessionRepo:        sessionRepo,
		companyRepo:        companyRepo,
		logger:             logger,
	}
}

// incomeReaders lists the capabilities that allow reading someone else's income.
// Trainers, coordinators and marketing users only ever see their own.
var incomeReaders = map[IncomeView][]identity.Capability{
	IncomeViewTrainer:     {identity.CapIncomeReadAny},
	IncomeViewCoordinator: {identity.CapIncomeReadAny},
	IncomeViewMarketing:   {identity.CapIncomeReadAny},
}

// GetIncome returns a person's payable records and their paid/pending summary.
// A person may always read their own income.
func (s *IncomeService) GetIncome(ctx context.Context, actor identity.Actor, q IncomeQuery) (*IncomeResult, error) {
	caps, ok := incomeReaders[q.View]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown income view: "+string(q.View))
	}
	if err := identity.AuthorizeOwnerOr(actor, q.PersonID, caps...); err != nil {
		s.logger.Warn("income access denied",
			zap.String("view", string(q.View)),
			zap.String("person_id", q.PersonID.String()),
			zap.String("actor_id", actor.UserID.String()),
		)
		return nil, err
	}
	if err := validatePeriod(q.Year, q.Month); err != nil {
		return nil, err
	}

	var records []IncomeRecord
	var err error
	switch q.View {
	case IncomeViewTrainer:
		records, err = s.trainerRecords(ctx, q.PersonID)
	case IncomeViewCoordinator:
		records, err = s.coordinatorRecords(ctx, q.PersonID)
	case IncomeViewMarketing:
		records, err = s.marketingRecords(ctx, q.PersonID)
	}
	if err != nil {
		return nil, err
	}

	result := &IncomeResult{View: q.View, Records: records}
	for _, r := range records {
		if r.Status == string(finance.CommissionStatusVoided) {
			continue
		}
		result.Summary.Add(r.Amount, r.Status == string(finance.PayableStatusPaid))
	}
	return result, nil
}

func validatePeriod(year, month *int) error {
	if year != nil && (*year < 2000 || *year > 2100) {
		return shared.NewDomainError(shared.CodeValidation, "Year must be between 2000 and 2100")
	}
	if month != nil && (*month < 1 || *month > 12) {
		return shared.NewDomainError(shared.CodeValidation, "Month must be between 1 and 12")
	}
	return nil
}

func (s *IncomeService) trainerRecords(ctx context.Context, trainerID uuid.UUID) ([]IncomeRecord, error) {
	incomes, err := s.trainerIncomeRepo.FindByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	sessionIDs := make([]uuid.UUID, len(incomes))
	for i, t := range incomes {
		sessionIDs[i] = t.SessionID
	}
	sessions, err := s.sessionsByID(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	records := make([]IncomeRecord, 0, len(incomes))
	for _, t := range incomes {
		r := IncomeRecord{
			ID:        t.ID,
			SessionID: t.SessionID,
			Role:      string(t.Role),
			Amount:    t.Amount,
			Status:    string(t.Status),
			PaidDate:  t.PaidDate,
			Remark:    t.Remark,
		}
		fillSession(&r, sessions[t.SessionID])
		records = append(records, r)
	}
	return records, nil
}

func (s *IncomeService) coordinatorRecords(ctx context.Context, coordinatorID uuid.UUID) ([]IncomeRecord, error) {
	fees, err := s.coordinatorFeeRepo.FindByCoordinator(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}
	sessionIDs := make([]uuid.UUID, len(fees))
	for i, f := range fees {
		sessionIDs[i] = f.SessionID
	}
	sessions, err := s.sessionsByID(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	records := make([]IncomeRecord, 0, len(fees))
	for _, f := range fees {
		rate := f.DailyRate
		r := IncomeRecord{
			ID:        f.ID,
			SessionID: f.SessionID,
			NumDays:   f.NumDays,
			DailyRate: &rate,
			Amount:    f.Amount,
			Status:    string(f.Status),
			PaidDate:  f.PaidDate,
		}
		fillSession(&r, sessions[f.SessionID])
		records = append(records, r)
	}
	return records, nil
}

func (s *IncomeService) marketingRecords(ctx context.Context, userID uuid.UUID) ([]IncomeRecord, error) {
	commissions, err := s.commissionRepo.FindByMarketingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessionIDs := make([]uuid.UUID, len(commissions))
	for i, c := range commissions {
		sessionIDs[i] = c.SessionID
	}
	sessions, err := s.sessionsByID(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}
	companyIDs := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		companyIDs = append(companyIDs, session.CompanyID)
	}
	companies, err := s.companyRepo.NamesByIDs(ctx, companyIDs)
	if err != nil {
		return nil, err
	}

	records := make([]IncomeRecord, 0, len(commissions))
	for _, c := range commissions {
		rate := c.Terms.Rate
		r := IncomeRecord{
			ID:             c.ID,
			SessionID:      c.SessionID,
			CommissionType: string(c.Terms.Type),
			CommissionRate: &rate,
			Amount:         c.CalculatedAmount,
			Status:         string(c.Status),
			PaidDate:       c.PaidDate,
		}
		if session := sessions[c.SessionID]; session != nil {
			fillSession(&r, session)
			r.CompanyName = companies[session.CompanyID]
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *IncomeService) sessionsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*training.Session, error) {
	sessions, err := s.sessionRepo.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*training.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}
	return byID, nil
}

func fillSession(r *IncomeRecord, session *training.Session) {
	if session == nil {
		return
	}
	r.SessionName = session.Name
	r.DateRange = session.DateRange()
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
