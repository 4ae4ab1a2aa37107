package finance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
)

// ExpenseCategory groups cash expenses of a session
type ExpenseCategory string

const (
	ExpenseCategoryAccommodation ExpenseCategory = "accommodation"
	ExpenseCategoryAllowance     ExpenseCategory = "allowance"
	ExpenseCategoryPetrol        ExpenseCategory = "petrol"
	ExpenseCategoryFnB           ExpenseCategory = "fnb"
	ExpenseCategoryHRDCLevy      ExpenseCategory = "hrdc_levy"
	ExpenseCategoryWearTear      ExpenseCategory = "wear_tear"
	ExpenseCategoryPrinting      ExpenseCategory = "printing"
)

// ExpenseType defines how the estimated amount of an expense is derived
type ExpenseType string

const (
	ExpenseTypeFixed      ExpenseType = "fixed"      // unit price as-is
	ExpenseTypePerPax     ExpenseType = "per_pax"    // quantity x unit price
	ExpenseTypePercentage ExpenseType = "percentage" // rate % of the invoice amount
)

// IsValid checks if the expense type is known
func (t ExpenseType) IsValid() bool {
	return t == ExpenseTypeFixed || t == ExpenseTypePerPax || t == ExpenseTypePercentage
}

// ExpenseCategoryInfo describes a category and its default costing
type ExpenseCategoryInfo struct {
	Category     ExpenseCategory `json:"category"`
	Label        string          `json:"label"`
	DefaultType  ExpenseType     `json:"default_type"`
	DefaultPrice decimal.Decimal `json:"default_unit_price"`
	DefaultRate  decimal.Decimal `json:"default_percentage_rate"`
}

// ExpenseCategories lists the known categories in display order
func ExpenseCategories() []ExpenseCategoryInfo {
	return []ExpenseCategoryInfo{
		{Category: ExpenseCategoryAccommodation, Label: "Accommodation", DefaultType: ExpenseTypeFixed},
		{Category: ExpenseCategoryAllowance, Label: "Trainer Allowance", DefaultType: ExpenseTypeFixed},
		{Category: ExpenseCategoryPetrol, Label: "Petrol & Toll", DefaultType: ExpenseTypeFixed},
		{Category: ExpenseCategoryFnB, Label: "Food & Beverage", DefaultType: ExpenseTypePerPax, DefaultPrice: decimal.NewFromInt(25)},
		{Category: ExpenseCategoryHRDCLevy, Label: "HRDC Levy", DefaultType: ExpenseTypePercentage, DefaultRate: decimal.NewFromInt(4)},
		{Category: ExpenseCategoryWearTear, Label: "Wear & Tear", DefaultType: ExpenseTypePercentage, DefaultRate: decimal.NewFromInt(2)},
		{Category: ExpenseCategoryPrinting, Label: "Printing", DefaultType: ExpenseTypePercentage, DefaultRate: decimal.NewFromInt(1)},
	}
}

// IsValid checks if the category is known
func (c ExpenseCategory) IsValid() bool {
	for _, info := range ExpenseCategories() {
		if info.Category == c {
			return true
		}
	}
	return false
}

// CashExpense is one miscellaneous cost line of a session
type CashExpense struct {
	shared.BaseEntity
	SessionID       uuid.UUID
	Category        ExpenseCategory
	Description     string
	ExpenseType     ExpenseType
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	PercentageRate  decimal.Decimal
	EstimatedAmount decimal.Decimal
	ActualAmount    decimal.Decimal
	Remark          string
}

// NewCashExpense validates an expense line and derives its estimate when missing.
// invoiceAmount is the base for percentage expenses.
func NewCashExpense(sessionID uuid.UUID, e CashExpense, invoiceAmount decimal.Decimal) (*CashExpense, error) {
	if !e.Category.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown expense category: "+string(e.Category))
	}
	if e.ExpenseType == "" {
		e.ExpenseType = ExpenseTypeFixed
	}
	if !e.ExpenseType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Expense type must be fixed, per_pax or percentage")
	}
	for _, v := range []decimal.Decimal{e.Quantity, e.UnitPrice, e.PercentageRate, e.EstimatedAmount, e.ActualAmount} {
		if v.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeValidation, "Expense values cannot be negative")
		}
	}

	if e.EstimatedAmount.IsZero() {
		switch e.ExpenseType {
		case ExpenseTypePerPax:
			e.EstimatedAmount = e.Quantity.Mul(e.UnitPrice)
		case ExpenseTypePercentage:
			e.EstimatedAmount = invoiceAmount.Mul(e.PercentageRate).Div(decimal.NewFromInt(100))
		default:
			e.EstimatedAmount = e.UnitPrice
		}
	}

	e.BaseEntity = shared.NewBaseEntity()
	e.SessionID = sessionID
	e.Description = strings.TrimSpace(e.Description)
	e.EstimatedAmount = e.EstimatedAmount.Round(2)
	e.ActualAmount = e.ActualAmount.Round(2)
	return &e, nil
}

// EffectiveAmount is the actual amount once known, otherwise the estimate
func (e *CashExpense) EffectiveAmount() decimal.Decimal {
	if !e.ActualAmount.IsZero() {
		return e.ActualAmount
	}
	return e.EstimatedAmount
}
