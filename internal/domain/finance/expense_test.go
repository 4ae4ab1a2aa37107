package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/shared"
)

func TestNewCashExpense_Estimates(t *testing.T) {
	invoiceAmount := decimal.NewFromInt(10000)
	tests := []struct {
		name     string
		input    CashExpense
		expected string
	}{
		{"fixed uses unit price", CashExpense{Category: ExpenseCategoryAccommodation, UnitPrice: decimal.NewFromInt(350)}, "350.00"},
		{"per pax multiplies", CashExpense{Category: ExpenseCategoryFnB, ExpenseType: ExpenseTypePerPax, Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(25)}, "500.00"},
		{"percentage of invoice", CashExpense{Category: ExpenseCategoryHRDCLevy, ExpenseType: ExpenseTypePercentage, PercentageRate: decimal.NewFromInt(4)}, "400.00"},
		{"explicit estimate kept", CashExpense{Category: ExpenseCategoryPetrol, UnitPrice: decimal.NewFromInt(10), EstimatedAmount: decimal.NewFromInt(120)}, "120.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewCashExpense(uuid.New(), tc.input, invoiceAmount)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, e.EstimatedAmount.StringFixed(2))
		})
	}
}

func TestNewCashExpense_Validation(t *testing.T) {
	_, err := NewCashExpense(uuid.New(), CashExpense{Category: "yacht"}, decimal.Zero)
	assertDomainCode(t, err, shared.CodeValidation)

	_, err = NewCashExpense(uuid.New(), CashExpense{Category: ExpenseCategoryPetrol, ExpenseType: "hourly"}, decimal.Zero)
	assertDomainCode(t, err, shared.CodeValidation)

	_, err = NewCashExpense(uuid.New(), CashExpense{Category: ExpenseCategoryPetrol, UnitPrice: decimal.NewFromInt(-5)}, decimal.Zero)
	assertDomainCode(t, err, shared.CodeValidation)
}

func TestCashExpense_EffectiveAmount(t *testing.T) {
	e := &CashExpense{EstimatedAmount: decimal.NewFromInt(100)}
	assert.Equal(t, "100", e.EffectiveAmount().String())

	e.ActualAmount = decimal.NewFromInt(90)
	assert.Equal(t, "90", e.EffectiveAmount().String())
}

func TestExpenseCategories(t *testing.T) {
	cats := ExpenseCategories()
	require.Len(t, cats, 7)
	for _, c := range cats {
		assert.True(t, c.Category.IsValid())
		assert.True(t, c.DefaultType.IsValid())
	}
}
