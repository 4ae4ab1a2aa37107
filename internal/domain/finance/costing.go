package finance

import (
	"github.com/shopspring/decimal"
)

// CostingInput is everything the profit calculation of a session depends on
type CostingInput struct {
	// InvoiceAmount is the pre-tax billed amount of the session's invoice
	InvoiceAmount   decimal.Decimal
	TaxRate         decimal.Decimal
	TrainerFees     decimal.Decimal
	CoordinatorFees decimal.Decimal
	CashExpenses    decimal.Decimal
	// Commission is nil when no marketing user is credited
	Commission *CommissionTerms
	// FinalizedCommission, when set, replaces the computed commission
	FinalizedCommission *decimal.Decimal
}

// Costing is the derived financial outcome of one session
type Costing struct {
	InvoiceAmount         decimal.Decimal
	TaxRate               decimal.Decimal
	TaxAmount             decimal.Decimal
	GrossRevenue          decimal.Decimal
	TrainerFees           decimal.Decimal
	CoordinatorFees       decimal.Decimal
	CashExpenses          decimal.Decimal
	DirectCosts           decimal.Decimal
	ProfitBeforeMarketing decimal.Decimal
	MarketingCommission   decimal.Decimal
	NetProfit             decimal.Decimal
	ProfitMargin          decimal.Decimal
}

// CalculateCosting derives revenue, costs and profit. The marketing commission
// is taken on the profit left after tax and direct costs.
func CalculateCosting(in CostingInput) Costing {
	tax := CalculateTax(in.InvoiceAmount, in.TaxRate)
	gross := in.InvoiceAmount.Sub(tax)
	direct := in.TrainerFees.Add(in.CoordinatorFees).Add(in.CashExpenses)
	beforeMarketing := gross.Sub(direct)

	commission := decimal.Zero
	switch {
	case in.FinalizedCommission != nil:
		commission = *in.FinalizedCommission
	case in.Commission != nil:
		commission = in.Commission.Amount(beforeMarketing)
	}

	net := beforeMarketing.Sub(commission)
	margin := decimal.Zero
	if gross.IsPositive() {
		margin = net.Div(gross).Mul(decimal.NewFromInt(100)).Round(1)
	}

	return Costing{
		InvoiceAmount:         in.InvoiceAmount,
		TaxRate:               in.TaxRate,
		TaxAmount:             tax,
		GrossRevenue:          gross,
		TrainerFees:           in.TrainerFees,
		CoordinatorFees:       in.CoordinatorFees,
		CashExpenses:          in.CashExpenses,
		DirectCosts:           direct,
		ProfitBeforeMarketing: beforeMarketing,
		MarketingCommission:   commission,
		NetProfit:             net,
		ProfitMargin:          margin,
	}
}

// SumTrainerFees totals the trainer income of a session
func SumTrainerFees(incomes []*TrainerIncome) decimal.Decimal {
	total := decimal.Zero
	for _, t := range incomes {
		total = total.Add(t.Amount)
	}
	return total
}

// SumCashExpenses totals the effective amounts of a session's expenses
func SumCashExpenses(expenses []*CashExpense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.EffectiveAmount())
	}
	return total
}
