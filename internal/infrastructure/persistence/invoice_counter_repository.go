package persistence

import (
	"context"
	"fmt"

	"github.com/trainhub/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// nextInvoiceSequenceSQL allocates the next value with a single upsert so that
// concurrent callers are serialized on the counter row.
const nextInvoiceSequenceSQL = `INSERT INTO invoice_counters (prefix, year, last_value) VALUES (?, ?, 1)
ON CONFLICT (prefix, year) DO UPDATE SET last_value = invoice_counters.last_value + 1
RETURNING last_value`

// GormInvoiceCounterRepository implements finance.InvoiceCounter on the invoice_counters table
type GormInvoiceCounterRepository struct {
	db *gorm.DB
}

// NewGormInvoiceCounterRepository creates a new GormInvoiceCounterRepository
func NewGormInvoiceCounterRepository(db *gorm.DB) *GormInvoiceCounterRepository {
	return &GormInvoiceCounterRepository{db: db}
}

// NextSequence atomically increments and returns the counter for prefix and year
func (r *GormInvoiceCounterRepository) NextSequence(ctx context.Context, prefix string, year int) (int64, error) {
	var seq int64
	if err := r.db.WithContext(ctx).Raw(nextInvoiceSequenceSQL, prefix, year).Row().Scan(&seq); err != nil {
		return 0, fmt.Errorf("increment invoice counter %s/%d: %w", prefix, year, err)
	}
	return seq, nil
}

// Ensure GormInvoiceCounterRepository implements InvoiceCounter
var _ finance.InvoiceCounter = (*GormInvoiceCounterRepository)(nil)
