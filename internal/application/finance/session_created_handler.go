package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"go.uber.org/zap"
)

// invoiceCreator is the part of InvoiceService the handler needs
type invoiceCreator interface {
	CreateForSession(ctx context.Context, sessionID, actorID uuid.UUID) (*InvoiceResponse, error)
}

// SessionCreatedHandler creates the auto draft invoice of a new training session
type SessionCreatedHandler struct {
	invoices invoiceCreator
	logger   *zap.Logger
}

// NewSessionCreatedHandler creates a new handler for session created events
func NewSessionCreatedHandler(invoices invoiceCreator, logger *zap.Logger) *SessionCreatedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCreatedHandler{invoices: invoices, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SessionCreatedHandler) EventTypes() []string {
	return []string{training.EventTypeSessionCreated}
}

// Handle creates the invoice. A session that already has one is skipped.
func (h *SessionCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*training.SessionCreatedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", training.EventTypeSessionCreated),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			training.EventTypeSessionCreated, event.EventType())
	}

	h.logger.Info("processing session created event for invoice creation",
		zap.String("session_id", created.SessionID.String()),
		zap.String("session_name", created.SessionName),
	)

	inv, err := h.invoices.CreateForSession(ctx, created.SessionID, created.ActorID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == shared.CodeAlreadyExists {
			h.logger.Warn("invoice already exists for session, skipping",
				zap.String("session_id", created.SessionID.String()),
			)
			return nil
		}
		h.logger.Error("failed to create invoice for session",
			zap.String("session_id", created.SessionID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	h.logger.Info("auto draft invoice created",
		zap.String("session_id", created.SessionID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
	)
	return nil
}

// Ensure SessionCreatedHandler implements EventHandler
var _ shared.EventHandler = (*SessionCreatedHandler)(nil)
