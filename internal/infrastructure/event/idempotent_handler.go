package event

import (
	"context"
	"sync/atomic"

	"github.com/trainhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats counts what an IdempotentHandler did
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotencyMetrics is shared between handlers that should report together
type IdempotencyMetrics struct {
	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// Stats returns a snapshot
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  m.processed.Load(),
		Duplicates: m.duplicates.Load(),
		Failed:     m.failed.Load(),
	}
}

// IdempotentHandler runs the wrapped handler at most once per event ID.
// The ID is claimed before the handler runs, so a failed event is not
// retried until its claim expires.
type IdempotentHandler struct {
	next    shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides the TTL and enabled flag
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = cfg
	}
}

// WithIdempotencyMetrics makes the handler report into metrics
func WithIdempotencyMetrics(metrics *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.metrics = metrics
	}
}

// NewIdempotentHandler wraps next
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &IdempotentHandler{
		next:    next,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle claims the event ID and runs the wrapped handler if the claim is new.
// When the store is unreachable the event is processed anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.next.Handle(ctx, ev)
	}

	eventID := ev.EventID().String()
	fields := []zap.Field{
		zap.String("event_id", eventID),
		zap.String("event_type", ev.EventType()),
	}

	fresh, err := h.store.MarkProcessed(ctx, eventID, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, processing event anyway", append(fields, zap.Error(err))...)
	case !fresh:
		h.metrics.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped", fields...)
		return nil
	}

	if err := h.next.Handle(ctx, ev); err != nil {
		h.metrics.failed.Add(1)
		return err
	}
	h.metrics.processed.Add(1)
	return nil
}

// Metrics returns the handler's counters
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

// Unwrap returns the wrapped handler
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.next
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
