// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FinanceMetrics tracks invoice, payment and payable activity.
type FinanceMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	invoiceCreatedTotal    *Counter
	invoiceTransitionTotal *Counter
	paymentTotal           *Counter
	paymentAmountTotal     *Counter
	payablePaidTotal       *Counter
	payableAmountTotal     *Counter

	outstandingInvoices *Gauge
	pendingPayables     *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	snapshots FinanceSnapshotProvider
}

// FinanceSnapshotProvider reports point-in-time finance figures without the
// telemetry layer depending on the finance application package.
type FinanceSnapshotProvider interface {
	// OutstandingInvoices returns the number of issued but unpaid invoices
	OutstandingInvoices(ctx context.Context) (int64, error)

	// PendingPayableCents returns the unpaid trainer, coordinator and
	// commission amounts in cents
	PendingPayableCents(ctx context.Context) (int64, error)
}

// FinanceMetricsConfig holds configuration for finance metrics.
type FinanceMetricsConfig struct {
	Meter            metric.Meter
	Logger           *zap.Logger
	SnapshotProvider FinanceSnapshotProvider
}

// NewFinanceMetrics creates a new FinanceMetrics instance.
func NewFinanceMetrics(cfg FinanceMetricsConfig) (*FinanceMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fm := &FinanceMetrics{
		meter:     cfg.Meter,
		logger:    logger,
		stopChan:  make(chan struct{}),
		snapshots: cfg.SnapshotProvider,
	}

	counters := []struct {
		target           **Counter
		name, desc, unit string
	}{
		{&fm.invoiceCreatedTotal, "trainhub_invoice_created_total", "Total number of invoices created", "{invoices}"},
		{&fm.invoiceTransitionTotal, "trainhub_invoice_transition_total", "Total number of invoice status transitions", "{transitions}"},
		{&fm.paymentTotal, "trainhub_payment_total", "Total number of payments recorded", "{payments}"},
		{&fm.paymentAmountTotal, "trainhub_payment_amount_total", "Total amount received in cents", "{cents}"},
		{&fm.payablePaidTotal, "trainhub_payable_paid_total", "Total number of payables marked paid", "{payables}"},
		{&fm.payableAmountTotal, "trainhub_payable_amount_total", "Total amount paid out in cents", "{cents}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	fm.outstandingInvoices, err = NewGauge(
		cfg.Meter,
		"trainhub_invoice_outstanding",
		"Issued invoices awaiting payment",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	fm.pendingPayables, err = NewGauge(
		cfg.Meter,
		"trainhub_payable_pending_amount",
		"Amount owed to trainers, coordinators and marketing in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	return fm, nil
}

// RecordInvoiceCreated counts an auto-drafted invoice.
func (fm *FinanceMetrics) RecordInvoiceCreated(ctx context.Context) {
	fm.invoiceCreatedTotal.Inc(ctx)
}

// RecordInvoiceTransition counts a status change of an invoice.
func (fm *FinanceMetrics) RecordInvoiceTransition(ctx context.Context, from, to string) {
	fm.invoiceTransitionTotal.Inc(ctx,
		AttrStatusFrom.String(from),
		AttrStatusTo.String(to),
	)
}

// RecordPayment counts a payment and its amount.
func (fm *FinanceMetrics) RecordPayment(ctx context.Context, method string, amount decimal.Decimal) {
	fm.paymentTotal.Inc(ctx, AttrPaymentMethod.String(method))
	fm.paymentAmountTotal.Add(ctx, toCents(amount), AttrPaymentMethod.String(method))
}

// RecordPayablePaid counts a payable flipped to paid.
func (fm *FinanceMetrics) RecordPayablePaid(ctx context.Context, kind string, amount decimal.Decimal) {
	fm.payablePaidTotal.Inc(ctx, AttrPayableKind.String(kind))
	fm.payableAmountTotal.Add(ctx, toCents(amount), AttrPayableKind.String(kind))
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (fm *FinanceMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	fm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go fm.runPeriodicCollection(ctx, interval)
	})
}

func (fm *FinanceMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fm.collect(ctx)

	for {
		select {
		case <-fm.stopChan:
			fm.logger.Info("Stopping periodic finance metrics collection")
			return
		case <-ctx.Done():
			fm.logger.Info("Context cancelled, stopping periodic finance metrics collection")
			return
		case <-ticker.C:
			fm.collect(ctx)
		}
	}
}

func (fm *FinanceMetrics) collect(ctx context.Context) {
	if fm.snapshots == nil {
		fm.logger.Debug("No snapshot provider configured, skipping finance gauges")
		return
	}

	if n, err := fm.snapshots.OutstandingInvoices(ctx); err != nil {
		fm.logger.Warn("Failed to count outstanding invoices", zap.Error(err))
	} else {
		fm.outstandingInvoices.Record(ctx, n)
	}

	if n, err := fm.snapshots.PendingPayableCents(ctx); err != nil {
		fm.logger.Warn("Failed to sum pending payables", zap.Error(err))
	} else {
		fm.pendingPayables.Record(ctx, n)
	}
}

// Stop stops the periodic collection.
func (fm *FinanceMetrics) Stop() {
	fm.stopOnce.Do(func() {
		close(fm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewFinanceMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Finance attribute keys
var (
	AttrStatusFrom  = attribute.Key("status_from")
	AttrStatusTo    = attribute.Key("status_to")
	AttrPayableKind = attribute.Key("payable_kind")
)
