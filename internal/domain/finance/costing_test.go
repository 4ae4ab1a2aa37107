package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/training"
)

func TestCalculateCosting(t *testing.T) {
	t.Run("percentage commission on profit before marketing", func(t *testing.T) {
		c := CalculateCosting(CostingInput{
			InvoiceAmount:   decimal.NewFromInt(10000),
			TaxRate:         decimal.NewFromInt(6),
			TrainerFees:     decimal.NewFromInt(1500),
			CoordinatorFees: decimal.NewFromInt(400),
			CashExpenses:    decimal.NewFromInt(200),
			Commission:      &CommissionTerms{Type: training.CommissionPercentage, Rate: decimal.NewFromInt(10)},
		})

		assert.Equal(t, "600.00", c.TaxAmount.StringFixed(2))
		assert.Equal(t, "9400.00", c.GrossRevenue.StringFixed(2))
		assert.Equal(t, "2100.00", c.DirectCosts.StringFixed(2))
		assert.Equal(t, "7300.00", c.ProfitBeforeMarketing.StringFixed(2))
		assert.Equal(t, "730.00", c.MarketingCommission.StringFixed(2))
		assert.Equal(t, "6570.00", c.NetProfit.StringFixed(2))
		assert.Equal(t, "69.9", c.ProfitMargin.String())
	})

	t.Run("no marketing user", func(t *testing.T) {
		c := CalculateCosting(CostingInput{
			InvoiceAmount: decimal.NewFromInt(5000),
			TaxRate:       decimal.Zero,
			TrainerFees:   decimal.NewFromInt(1000),
		})

		assert.True(t, c.MarketingCommission.IsZero())
		assert.Equal(t, "4000.00", c.NetProfit.StringFixed(2))
		assert.Equal(t, "80", c.ProfitMargin.String())
	})

	t.Run("fixed commission", func(t *testing.T) {
		c := CalculateCosting(CostingInput{
			InvoiceAmount: decimal.NewFromInt(5000),
			Commission:    &CommissionTerms{Type: training.CommissionFixed, FixedAmount: decimal.NewFromInt(300)},
		})

		assert.Equal(t, "300.00", c.MarketingCommission.StringFixed(2))
		assert.Equal(t, "4700.00", c.NetProfit.StringFixed(2))
	})

	t.Run("finalized commission wins", func(t *testing.T) {
		finalized := decimal.NewFromInt(123)
		c := CalculateCosting(CostingInput{
			InvoiceAmount:       decimal.NewFromInt(5000),
			Commission:          &CommissionTerms{Type: training.CommissionPercentage, Rate: decimal.NewFromInt(50)},
			FinalizedCommission: &finalized,
		})

		assert.Equal(t, "123.00", c.MarketingCommission.StringFixed(2))
	})

	t.Run("loss floors percentage commission at zero", func(t *testing.T) {
		c := CalculateCosting(CostingInput{
			InvoiceAmount: decimal.NewFromInt(1000),
			TrainerFees:   decimal.NewFromInt(3000),
			Commission:    &CommissionTerms{Type: training.CommissionPercentage, Rate: decimal.NewFromInt(10)},
		})

		assert.True(t, c.MarketingCommission.IsZero())
		assert.Equal(t, "-2000.00", c.NetProfit.StringFixed(2))
	})

	t.Run("zero revenue has zero margin", func(t *testing.T) {
		c := CalculateCosting(CostingInput{})
		assert.True(t, c.ProfitMargin.IsZero())
	})
}

func TestSumHelpers(t *testing.T) {
	sessionID := uuid.New()
	a, err := NewTrainerIncome(sessionID, uuid.New(), "Aisyah", TrainerRoleChief, decimal.NewFromInt(1000), "")
	require.NoError(t, err)
	b, err := NewTrainerIncome(sessionID, uuid.New(), "Ben", TrainerRoleTrainer, decimal.NewFromInt(500), "")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", SumTrainerFees([]*TrainerIncome{a, b}).StringFixed(2))

	e1, err := NewCashExpense(sessionID, CashExpense{Category: ExpenseCategoryPetrol, UnitPrice: decimal.NewFromInt(80)}, decimal.Zero)
	require.NoError(t, err)
	e2, err := NewCashExpense(sessionID, CashExpense{Category: ExpenseCategoryPrinting, EstimatedAmount: decimal.NewFromInt(50), ActualAmount: decimal.NewFromInt(70)}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "150.00", SumCashExpenses([]*CashExpense{e1, e2}).StringFixed(2))
}
