package finance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trainhub/backend/internal/domain/shared"
)

// DefaultInvoicePrefix is the prefix of invoice numbers, as in INV-2026-0001
const DefaultInvoicePrefix = "INV"

// InvoiceCounter allocates per-year invoice sequence numbers.
// NextSequence must be atomic: concurrent callers never receive the same value.
type InvoiceCounter interface {
	NextSequence(ctx context.Context, prefix string, year int) (int64, error)
}

// FormatInvoiceNumber renders PREFIX-YEAR-NNNN, zero-padding the sequence to 4 digits
func FormatInvoiceNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// ParseInvoiceNumber splits an invoice number into prefix, year and sequence
func ParseInvoiceNumber(number string) (prefix string, year int, seq int64, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return "", 0, 0, shared.NewDomainError(shared.CodeInvalidInput, "Malformed invoice number: "+number)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, shared.NewDomainErrorWithCause(shared.CodeInvalidInput, "Malformed invoice year", err)
	}
	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, shared.NewDomainErrorWithCause(shared.CodeInvalidInput, "Malformed invoice sequence", err)
	}
	return parts[0], year, seq, nil
}

// InvoiceNumberGenerator produces year-scoped invoice numbers from an atomic counter
type InvoiceNumberGenerator struct {
	counter  InvoiceCounter
	prefix   string
	location *time.Location
	now      func() time.Time
}

// NewInvoiceNumberGenerator creates a generator. The year is taken in loc.
func NewInvoiceNumberGenerator(counter InvoiceCounter, prefix string, loc *time.Location) *InvoiceNumberGenerator {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InvoiceNumberGenerator{counter: counter, prefix: prefix, location: loc, now: time.Now}
}

// WithClock overrides the clock, for tests
func (g *InvoiceNumberGenerator) WithClock(now func() time.Time) *InvoiceNumberGenerator {
	g.now = now
	return g
}

// Next allocates the next invoice number for the current year
func (g *InvoiceNumberGenerator) Next(ctx context.Context) (string, error) {
	return g.NextWith(ctx, g.counter)
}

// NextWith allocates using the given counter, typically one bound to a transaction
func (g *InvoiceNumberGenerator) NextWith(ctx context.Context, counter InvoiceCounter) (string, error) {
	year := g.now().In(g.location).Year()
	seq, err := counter.NextSequence(ctx, g.prefix, year)
	if err != nil {
		return "", fmt.Errorf("allocate invoice sequence: %w", err)
	}
	return FormatInvoiceNumber(g.prefix, year, seq), nil
}
