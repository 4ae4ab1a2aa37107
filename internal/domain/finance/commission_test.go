package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
)

func newTestCommission(t *testing.T) *MarketingCommission {
	t.Helper()
	c, err := NewMarketingCommission(uuid.New(), uuid.New(),
		CommissionTerms{Type: training.CommissionPercentage, Rate: decimal.NewFromInt(10)})
	require.NoError(t, err)
	return c
}

func TestCommissionTerms_Amount(t *testing.T) {
	pct := CommissionTerms{Type: training.CommissionPercentage, Rate: decimal.NewFromInt(10)}
	assert.Equal(t, "730.00", pct.Amount(decimal.NewFromInt(7300)).StringFixed(2))
	assert.True(t, pct.Amount(decimal.NewFromInt(-500)).IsZero())

	fixed := CommissionTerms{Type: training.CommissionFixed, FixedAmount: decimal.NewFromInt(250)}
	assert.Equal(t, "250.00", fixed.Amount(decimal.NewFromInt(-500)).StringFixed(2))

	assert.True(t, CommissionTerms{}.Amount(decimal.NewFromInt(1000)).IsZero())
}

func TestTermsFromAttribution(t *testing.T) {
	terms := TermsFromAttribution(training.MarketingAttribution{
		UserID: uuid.New(), Type: training.CommissionFixed, FixedAmount: decimal.NewFromInt(99),
	})
	assert.Equal(t, training.CommissionFixed, terms.Type)
	assert.True(t, terms.FixedAmount.Equal(decimal.NewFromInt(99)))
}

func TestNewMarketingCommission_Validation(t *testing.T) {
	_, err := NewMarketingCommission(uuid.Nil, uuid.New(), CommissionTerms{})
	assertDomainCode(t, err, shared.CodeValidation)

	_, err = NewMarketingCommission(uuid.New(), uuid.Nil, CommissionTerms{})
	assertDomainCode(t, err, shared.CodeValidation)
}

func TestMarketingCommission_Finalize(t *testing.T) {
	t.Run("locks amount once", func(t *testing.T) {
		c := newTestCommission(t)
		invoiceID := uuid.New()

		require.NoError(t, c.Finalize(invoiceID, decimal.NewFromInt(7300)))
		assert.Equal(t, CommissionStatusApproved, c.Status)
		assert.Equal(t, "730.00", c.CalculatedAmount.StringFixed(2))
		assert.Equal(t, invoiceID, *c.InvoiceID)
		assert.NotNil(t, c.FinalizedAt)

		err := c.Finalize(uuid.New(), decimal.NewFromInt(99999))
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, "730.00", c.CalculatedAmount.StringFixed(2))
	})

	t.Run("reconfigure only before finalize", func(t *testing.T) {
		c := newTestCommission(t)
		other := uuid.New()
		require.NoError(t, c.Reconfigure(other, CommissionTerms{Type: training.CommissionFixed, FixedAmount: decimal.NewFromInt(100)}))
		assert.Equal(t, other, c.MarketingUserID)

		require.NoError(t, c.Finalize(uuid.New(), decimal.Zero))
		assert.Equal(t, "100.00", c.CalculatedAmount.StringFixed(2))
		assertDomainCode(t, c.Reconfigure(uuid.New(), CommissionTerms{}), shared.CodeInvalidState)
	})
}

func TestMarketingCommission_MarkPaid(t *testing.T) {
	t.Run("pending cannot be paid", func(t *testing.T) {
		c := newTestCommission(t)
		_, err := c.MarkPaid(uuid.New(), "2026-04-01")
		assertDomainCode(t, err, shared.CodeInvalidState)
	})

	t.Run("approved is paid once", func(t *testing.T) {
		c := newTestCommission(t)
		require.NoError(t, c.Finalize(uuid.New(), decimal.NewFromInt(1000)))
		payer := uuid.New()

		changed, err := c.MarkPaid(payer, "2026-04-01")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, CommissionStatusPaid, c.Status)
		assert.Equal(t, "2026-04-01", c.PaidDate)

		changed, err = c.MarkPaid(uuid.New(), "2026-05-01")
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "2026-04-01", c.PaidDate)
		assert.Equal(t, payer, *c.PaidBy)
	})
}

func TestMarketingCommission_Void(t *testing.T) {
	t.Run("approved commission is voided", func(t *testing.T) {
		c := newTestCommission(t)
		require.NoError(t, c.Finalize(uuid.New(), decimal.NewFromInt(1000)))
		assert.True(t, c.Void())
		assert.Equal(t, CommissionStatusVoided, c.Status)
		assert.True(t, c.Status.IsFinalized())

		_, err := c.MarkPaid(uuid.New(), "2026-04-01")
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.False(t, c.Void())
	})

	t.Run("paid commission stays paid", func(t *testing.T) {
		c := newTestCommission(t)
		require.NoError(t, c.Finalize(uuid.New(), decimal.NewFromInt(1000)))
		_, err := c.MarkPaid(uuid.New(), "2026-04-01")
		require.NoError(t, err)
		assert.False(t, c.Void())
		assert.Equal(t, CommissionStatusPaid, c.Status)
	})
}
