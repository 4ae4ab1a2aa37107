package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService runs the invoice lifecycle: auto creation, finance edits,
// approval, issue with commission finalization, and cancellation.
type InvoiceService struct {
	scope          TransactionScope
	invoiceRepo    finance.InvoiceRepository
	sessionRepo    training.SessionRepository
	companyRepo    training.CompanyRepository
	programmeRepo  training.ProgrammeRepository
	numbers        *finance.InvoiceNumberGenerator
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.FinanceMetrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	scope TransactionScope,
	invoiceRepo finance.InvoiceRepository,
	sessionRepo training.SessionRepository,
	companyRepo training.CompanyRepository,
	programmeRepo training.ProgrammeRepository,
	numbers *finance.InvoiceNumberGenerator,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		scope:         scope,
		invoiceRepo:   invoiceRepo,
		sessionRepo:   sessionRepo,
		companyRepo:   companyRepo,
		programmeRepo: programmeRepo,
		numbers:       numbers,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetFinanceMetrics sets the finance metrics collector
func (s *InvoiceService) SetFinanceMetrics(m *telemetry.FinanceMetrics) {
	s.metrics = m
}

// List returns invoices newest first
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) (*InvoiceListResponse, error) {
	repoFilter := finance.InvoiceFilter{
		CompanyID: filter.CompanyID,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if filter.Status != "" {
		status := finance.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown invoice status: "+filter.Status)
		}
		repoFilter.Status = &status
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	items := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = ToInvoiceResponse(inv)
	}
	return &InvoiceListResponse{Invoices: items, Total: total}, nil
}

// Get returns a single invoice
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// CreateForSession creates the auto draft invoice of a session.
// It fails with ALREADY_EXISTS when the session already has one.
func (s *InvoiceService) CreateForSession(ctx context.Context, sessionID, actorID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create_for_session")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String())

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	companyName, programmeName := s.lookupNames(ctx, session)

	var inv *finance.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.InvoiceRepo().FindBySessionID(ctx, sessionID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil || session.HasInvoice() {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Session already has an invoice")
		}

		number, err := s.numbers.NextWith(ctx, repos.InvoiceCounter())
		if err != nil {
			return err
		}
		inv, err = finance.NewAutoDraftInvoice(
			number,
			session.ID,
			session.CompanyID,
			companyName,
			programmeName,
			session.StartDate,
			session.EndDate,
			session.Venue,
			session.ParticipantCount,
			actorID,
		)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}

		session.LinkInvoice(inv.ID, inv.InvoiceNumber, string(inv.Status))
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return fmt.Errorf("link invoice to session: %w", err)
		}
		if session.HasMarketing() {
			if err := ensurePendingCommission(ctx, repos, session); err != nil {
				return err
			}
		}

		return repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
			finance.AuditEntityInvoice, inv.ID, finance.AuditActionCreated, nil, inv.Snapshot(), actorID, ""))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "invoice_created", telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber)
	s.logger.Info("invoice created for session",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("session_id", sessionID.String()),
	)
	if s.metrics != nil {
		s.metrics.RecordInvoiceCreated(ctx)
	}
	s.publishEvents(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ensurePendingCommission registers the commission of a session created with
// a marketing attribution so that it shows in the marketing income view
func ensurePendingCommission(ctx context.Context, repos TransactionalRepositories, session *training.Session) error {
	_, err := repos.CommissionRepo().FindBySessionID(ctx, session.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	commission, err := finance.NewMarketingCommission(session.ID, session.Marketing.UserID, finance.TermsFromAttribution(*session.Marketing))
	if err != nil {
		return err
	}
	return repos.CommissionRepo().Save(ctx, commission)
}

// lookupNames resolves the company and programme names snapshotted on the invoice.
// Missing lookups leave the names empty rather than failing invoice creation.
func (s *InvoiceService) lookupNames(ctx context.Context, session *training.Session) (string, string) {
	var companyName, programmeName string
	if company, err := s.companyRepo.FindByID(ctx, session.CompanyID); err == nil {
		companyName = company.Name
	} else {
		s.logger.Warn("company lookup failed for invoice snapshot",
			zap.String("company_id", session.CompanyID.String()), zap.Error(err))
	}
	if programme, err := s.programmeRepo.FindByID(ctx, session.ProgrammeID); err == nil {
		programmeName = programme.Name
	} else {
		s.logger.Warn("programme lookup failed for invoice snapshot",
			zap.String("programme_id", session.ProgrammeID.String()), zap.Error(err))
	}
	return companyName, programmeName
}

// Update applies a partial finance edit while the invoice is editable
func (s *InvoiceService) Update(ctx context.Context, id, actorID uuid.UUID, input UpdateInvoiceInput) (*InvoiceResponse, error) {
	update := finance.InvoiceUpdate{
		CompanyName:       input.CompanyName,
		ProgrammeName:     input.ProgrammeName,
		TrainingStartDate: input.TrainingStartDate,
		TrainingEndDate:   input.TrainingEndDate,
		Venue:             input.Venue,
		Headcount:         input.Headcount,
		LineItems:         input.LineItems,
		Subtotal:          input.Subtotal,
		TaxRate:           input.TaxRate,
		TotalAmount:       input.TotalAmount,
		Notes:             input.Notes,
	}
	if input.Status != nil {
		status := finance.InvoiceStatus(*input.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeValidation, "Unknown invoice status: "+*input.Status)
		}
		update.Status = &status
	}

	return s.mutate(ctx, "update", id, actorID, func(inv *finance.Invoice) (finance.AuditAction, string, error) {
		if _, err := inv.Update(update, actorID); err != nil {
			return "", "", err
		}
		return finance.AuditActionUpdated, "", nil
	}, nil)
}

// Approve moves an editable invoice to approved
func (s *InvoiceService) Approve(ctx context.Context, id, actorID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, "approve", id, actorID, func(inv *finance.Invoice) (finance.AuditAction, string, error) {
		return finance.AuditActionStatusChanged, "", inv.Approve(actorID)
	}, nil)
}

// Issue moves an approved invoice to issued and finalizes the session's
// marketing commission in the same transaction
func (s *InvoiceService) Issue(ctx context.Context, id, actorID uuid.UUID) (*InvoiceResponse, error) {
	var finalized *finance.MarketingCommission
	resp, err := s.mutate(ctx, "issue", id, actorID, func(inv *finance.Invoice) (finance.AuditAction, string, error) {
		return finance.AuditActionStatusChanged, "", inv.Issue(actorID)
	}, func(repos TransactionalRepositories, inv *finance.Invoice) error {
		c, err := s.finalizeCommission(ctx, repos, inv, actorID)
		finalized = c
		return err
	})
	if err != nil {
		return nil, err
	}
	if finalized != nil {
		s.logger.Info("marketing commission finalized",
			zap.String("commission_id", finalized.ID.String()),
			zap.String("session_id", finalized.SessionID.String()),
			zap.String("calculated_amount", finalized.CalculatedAmount.StringFixed(2)),
		)
		s.publish(ctx, finance.NewCommissionFinalizedEvent(finalized, actorID))
	}
	return resp, nil
}

// Cancel voids a non-terminal invoice together with the session's unpaid
// marketing commission
func (s *InvoiceService) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*InvoiceResponse, error) {
	return s.mutate(ctx, "cancel", id, actorID, func(inv *finance.Invoice) (finance.AuditAction, string, error) {
		if err := inv.Cancel(actorID, reason); err != nil {
			return "", "", err
		}
		return finance.AuditActionStatusChanged, inv.CancellationReason, nil
	}, func(repos TransactionalRepositories, inv *finance.Invoice) error {
		return s.voidCommission(ctx, repos, inv, actorID)
	})
}

func (s *InvoiceService) voidCommission(ctx context.Context, repos TransactionalRepositories, inv *finance.Invoice, actorID uuid.UUID) error {
	commission, err := repos.CommissionRepo().FindBySessionID(ctx, inv.SessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	before := commission.Snapshot()
	if !commission.Void() {
		if commission.Status == finance.CommissionStatusPaid {
			s.logger.Warn("invoice cancelled after its commission was paid out",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("commission_id", commission.ID.String()))
		}
		return nil
	}
	if err := repos.CommissionRepo().Save(ctx, commission); err != nil {
		return err
	}
	return repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
		finance.AuditEntityCommission, commission.ID, finance.AuditActionStatusChanged,
		before, commission.Snapshot(), actorID, "Voided on invoice cancel"))
}

// mutate loads, changes and saves an invoice in one transaction. It mirrors a
// status change onto the session and writes exactly one invoice audit entry.
// after, when given, runs inside the same transaction once the invoice is saved.
func (s *InvoiceService) mutate(
	ctx context.Context,
	operation string,
	id, actorID uuid.UUID,
	change func(inv *finance.Invoice) (finance.AuditAction, string, error),
	after func(repos TransactionalRepositories, inv *finance.Invoice) error,
) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", operation)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	var inv *finance.Invoice
	var previous finance.InvoiceStatus
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		previous = inv.Status
		before := inv.Snapshot()

		action, reason, err := change(inv)
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		if inv.Status != previous {
			if err := repos.SessionRepo().UpdateInvoiceStatus(ctx, inv.SessionID, string(inv.Status)); err != nil {
				return fmt.Errorf("mirror invoice status to session: %w", err)
			}
		}

		auditBefore, auditAfter := before, inv.Snapshot()
		if action == finance.AuditActionStatusChanged {
			auditBefore, auditAfter = finance.StatusChange(string(previous), string(inv.Status))
		}
		if err := repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
			finance.AuditEntityInvoice, inv.ID, action, auditBefore, auditAfter, actorID, reason)); err != nil {
			return err
		}

		if after != nil {
			return after(repos, inv)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if inv.Status != previous {
		s.logger.Info("invoice status changed",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("from", string(previous)),
			zap.String("to", string(inv.Status)),
		)
		if s.metrics != nil {
			s.metrics.RecordInvoiceTransition(ctx, string(previous), string(inv.Status))
		}
	}
	s.publishEvents(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// finalizeCommission fixes the marketing commission of the invoice's session.
// The terms are taken from the session as it stands at issue time and the base
// is the profit before marketing.
func (s *InvoiceService) finalizeCommission(ctx context.Context, repos TransactionalRepositories, inv *finance.Invoice, actorID uuid.UUID) (*finance.MarketingCommission, error) {
	session, err := repos.SessionRepo().FindByID(ctx, inv.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session for commission: %w", err)
	}
	if !session.HasMarketing() {
		return nil, nil
	}

	terms := finance.TermsFromAttribution(*session.Marketing)
	commission, err := repos.CommissionRepo().FindBySessionID(ctx, session.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		commission, err = finance.NewMarketingCommission(session.ID, session.Marketing.UserID, terms)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case commission.Status.IsFinalized():
		s.logger.Warn("commission already finalized, leaving amount untouched",
			zap.String("commission_id", commission.ID.String()))
		return nil, nil
	default:
		if err := commission.Reconfigure(session.Marketing.UserID, terms); err != nil {
			return nil, err
		}
	}

	parts, err := loadCostingParts(ctx, repos, session.ID)
	if err != nil {
		return nil, err
	}
	costing := calculateCosting(inv, session, parts)

	before := commission.Snapshot()
	if err := commission.Finalize(inv.ID, costing.ProfitBeforeMarketing); err != nil {
		return nil, err
	}
	if err := repos.CommissionRepo().Save(ctx, commission); err != nil {
		return nil, err
	}
	if err := repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
		finance.AuditEntityCommission, commission.ID, finance.AuditActionStatusChanged,
		before, commission.Snapshot(), actorID, "Finalized on invoice issue")); err != nil {
		return nil, err
	}
	return commission, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, inv *finance.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	s.publish(ctx, events...)
}

func (s *InvoiceService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish invoice events", zap.Error(err))
	}
}
