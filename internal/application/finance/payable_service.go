package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PayableService pays out trainer income, coordinator fees and commissions
type PayableService struct {
	scope          TransactionScope
	location       *time.Location
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.FinanceMetrics
}

// NewPayableService creates a new PayableService. paid_date is stamped in loc.
func NewPayableService(scope TransactionScope, loc *time.Location, logger *zap.Logger) *PayableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PayableService{scope: scope, location: loc, logger: logger}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PayableService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetFinanceMetrics sets the finance metrics collector
func (s *PayableService) SetFinanceMetrics(m *telemetry.FinanceMetrics) {
	s.metrics = m
}

// ParsePayableKind maps the mark-paid path segment to a payable kind
func ParsePayableKind(segment string) (finance.PayableKind, error) {
	switch segment {
	case "trainer":
		return finance.PayableKindTrainerIncome, nil
	case "coordinator":
		return finance.PayableKindCoordinatorFee, nil
	case "commission":
		return finance.PayableKindCommission, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, "Unknown payable type: "+segment)
}

// MarkPaid pays out one payable. Marking an already paid record is a no-op
// that returns the record unchanged and writes no audit entry.
func (s *PayableService) MarkPaid(ctx context.Context, kind finance.PayableKind, recordID, actorID uuid.UUID) (*PayableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payable", "mark_paid")
	defer span.End()
	telemetry.SetAttributes(span, "payable_kind", string(kind), "record_id", recordID.String())

	paidDate := finance.PaidDateIn(s.location)
	var resp *PayableResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		switch kind {
		case finance.PayableKindTrainerIncome:
			resp, err = s.payTrainer(ctx, repos, recordID, actorID, paidDate)
		case finance.PayableKindCoordinatorFee:
			resp, err = s.payCoordinator(ctx, repos, recordID, actorID, paidDate)
		case finance.PayableKindCommission:
			resp, err = s.payCommission(ctx, repos, recordID, actorID, paidDate)
		default:
			return shared.NewDomainError(shared.CodeInvalidInput, "Unknown payable type: "+string(kind))
		}
		if err != nil || !resp.Changed {
			return err
		}
		before, after := finance.StatusChange(previousPayableStatus(kind), resp.Status)
		after["paid_date"] = resp.PaidDate
		return repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
			finance.AuditEntityType(kind), recordID, finance.AuditActionStatusChanged, before, after, actorID, ""))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !resp.Changed {
		s.logger.Info("payable already paid, nothing to do",
			zap.String("kind", string(kind)),
			zap.String("record_id", recordID.String()),
		)
		return resp, nil
	}

	s.logger.Info("payable marked paid",
		zap.String("kind", string(kind)),
		zap.String("record_id", recordID.String()),
		zap.String("amount", resp.Amount.StringFixed(2)),
		zap.String("paid_date", resp.PaidDate),
	)
	if s.metrics != nil {
		s.metrics.RecordPayablePaid(ctx, string(kind), resp.Amount)
	}
	if s.eventPublisher != nil {
		event := finance.NewPayablePaidEvent(kind, recordID, resp.PayeeID, resp.Amount, resp.PaidDate, actorID)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish payable paid event", zap.Error(err))
		}
	}
	return resp, nil
}

func previousPayableStatus(kind finance.PayableKind) string {
	if kind == finance.PayableKindCommission {
		return string(finance.CommissionStatusApproved)
	}
	return string(finance.PayableStatusPending)
}

func (s *PayableService) payTrainer(ctx context.Context, repos TransactionalRepositories, id, actorID uuid.UUID, paidDate string) (*PayableResponse, error) {
	income, err := repos.TrainerIncomeRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := income.MarkPaid(actorID, paidDate)
	if changed {
		if err := repos.TrainerIncomeRepo().Save(ctx, income); err != nil {
			return nil, err
		}
	}
	return &PayableResponse{
		ID:       income.ID,
		Kind:     string(finance.PayableKindTrainerIncome),
		PayeeID:  income.TrainerID,
		Amount:   income.Amount,
		Status:   string(income.Status),
		PaidDate: income.PaidDate,
		PaidBy:   income.PaidBy,
		Changed:  changed,
	}, nil
}

func (s *PayableService) payCoordinator(ctx context.Context, repos TransactionalRepositories, id, actorID uuid.UUID, paidDate string) (*PayableResponse, error) {
	fee, err := repos.CoordinatorFeeRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := fee.MarkPaid(actorID, paidDate)
	if changed {
		if err := repos.CoordinatorFeeRepo().Save(ctx, fee); err != nil {
			return nil, err
		}
	}
	return &PayableResponse{
		ID:       fee.ID,
		Kind:     string(finance.PayableKindCoordinatorFee),
		PayeeID:  fee.CoordinatorID,
		Amount:   fee.Amount,
		Status:   string(fee.Status),
		PaidDate: fee.PaidDate,
		PaidBy:   fee.PaidBy,
		Changed:  changed,
	}, nil
}

func (s *PayableService) payCommission(ctx context.Context, repos TransactionalRepositories, id, actorID uuid.UUID, paidDate string) (*PayableResponse, error) {
	commission, err := repos.CommissionRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := commission.MarkPaid(actorID, paidDate)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := repos.CommissionRepo().Save(ctx, commission); err != nil {
			return nil, err
		}
	}
	return &PayableResponse{
		ID:       commission.ID,
		Kind:     string(finance.PayableKindCommission),
		PayeeID:  commission.MarketingUserID,
		Amount:   commission.CalculatedAmount,
		Status:   string(commission.Status),
		PaidDate: commission.PaidDate,
		PaidBy:   commission.PaidBy,
		Changed:  changed,
	}, nil
}
