package finance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentIdempotencyTTL is how long an Idempotency-Key stays bound to its payment
const PaymentIdempotencyTTL = 24 * time.Hour

// PaymentService records payments and settles invoices once they are covered
type PaymentService struct {
	scope          TransactionScope
	paymentRepo    finance.PaymentRepository
	keys           shared.IdempotencyKeyStore
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	metrics        *telemetry.FinanceMetrics
}

// NewPaymentService creates a new PaymentService. keys may be nil, in which
// case Idempotency-Key headers are ignored.
func NewPaymentService(scope TransactionScope, paymentRepo finance.PaymentRepository, keys shared.IdempotencyKeyStore, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		scope:       scope,
		paymentRepo: paymentRepo,
		keys:        keys,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetFinanceMetrics sets the finance metrics collector
func (s *PaymentService) SetFinanceMetrics(m *telemetry.FinanceMetrics) {
	s.metrics = m
}

// RecordPayment appends a payment to an issued invoice. In the same
// transaction it locks the invoice, sums its payments and flips it to paid
// when the sum reaches the total.
func (s *PaymentService) RecordPayment(ctx context.Context, actorID uuid.UUID, input RecordPaymentInput) (*RecordPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, input.InvoiceID.String(),
		telemetry.SpanAttrAmount, input.Amount.String(),
	)

	payment, err := finance.NewPayment(
		input.InvoiceID,
		input.Amount,
		input.PaymentDate,
		finance.PaymentMethod(input.PaymentMethod),
		input.ReferenceNumber,
		input.Notes,
		actorID,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if input.IdempotencyKey != "" && s.keys != nil {
		replay, err := s.claimKey(ctx, input.IdempotencyKey, payment.ID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if replay != nil {
			telemetry.AddEvent(span, "payment_replayed", telemetry.SpanAttrPaymentID, replay.Payment.ID.String())
			return replay, nil
		}
	}

	var inv *finance.Invoice
	var paidTotal decimal.Decimal
	var flipped bool
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.AcceptsPayments() {
			return shared.NewDomainError(shared.CodeInvalidState, "Can only record payments for issued invoices")
		}

		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}
		paidTotal, err = repos.PaymentRepo().SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}

		flipped, err = inv.MarkPaid(paidTotal)
		if err != nil {
			return err
		}
		if flipped {
			if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
				return err
			}
			if err := repos.SessionRepo().UpdateInvoiceStatus(ctx, inv.SessionID, string(inv.Status)); err != nil {
				return err
			}
		}

		return repos.AuditRepo().Append(ctx, finance.NewAuditEntry(
			finance.AuditEntityPayment, payment.ID, finance.AuditActionCreated, nil, payment.Snapshot(), actorID, ""))
	})
	if err != nil {
		if input.IdempotencyKey != "" && s.keys != nil {
			if relErr := s.keys.Release(ctx, input.IdempotencyKey); relErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("paid_total", paidTotal.StringFixed(2)),
		zap.Bool("invoice_paid", flipped),
	)
	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, string(payment.Method), payment.Amount)
		if flipped {
			s.metrics.RecordInvoiceTransition(ctx, string(finance.InvoiceStatusIssued), string(finance.InvoiceStatusPaid))
		}
	}

	events := append([]shared.DomainEvent{finance.NewPaymentRecordedEvent(payment)}, inv.GetDomainEvents()...)
	inv.ClearDomainEvents()
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish payment events", zap.Error(err))
		}
	}

	return &RecordPaymentResult{
		Payment:       ToPaymentResponse(payment),
		InvoiceStatus: string(inv.Status),
		TotalPaid:     paidTotal,
	}, nil
}

// claimKey binds the idempotency key to paymentID. When the key already
// belongs to a stored payment that payment is returned as a replay.
func (s *PaymentService) claimKey(ctx context.Context, key string, paymentID uuid.UUID) (*RecordPaymentResult, error) {
	bound, claimed, err := s.keys.Claim(ctx, "payment:"+key, paymentID.String(), PaymentIdempotencyTTL)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, nil
	}

	existingID, err := uuid.Parse(bound)
	if err != nil {
		return nil, shared.NewDomainErrorWithCause(shared.CodeInternal, "Corrupt idempotency record", err)
	}
	existing, err := s.paymentRepo.FindByID(ctx, existingID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeConcurrency, "A payment with this idempotency key is still being processed")
	}
	if err != nil {
		return nil, err
	}
	paidTotal, err := s.paymentRepo.SumByInvoice(ctx, existing.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &RecordPaymentResult{
		Payment:   ToPaymentResponse(existing),
		TotalPaid: paidTotal,
		Replayed:  true,
	}, nil
}

// ListPayments lists payments newest first, optionally for one invoice
func (s *PaymentService) ListPayments(ctx context.Context, invoiceID *uuid.UUID, limit, offset int) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindAll(ctx, finance.PaymentFilter{InvoiceID: invoiceID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	resp := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = ToPaymentResponse(p)
	}
	return resp, nil
}
