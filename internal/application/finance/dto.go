package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/finance"
)

// =============================================================================
// Invoice DTOs
// =============================================================================

// InvoiceResponse is the read model of an invoice
type InvoiceResponse struct {
	ID                 uuid.UUID          `json:"id"`
	InvoiceNumber      string             `json:"invoice_number"`
	SessionID          uuid.UUID          `json:"session_id"`
	CompanyID          uuid.UUID          `json:"company_id"`
	CompanyName        string             `json:"company_name"`
	ProgrammeName      string             `json:"programme_name"`
	TrainingStartDate  string             `json:"training_start_date,omitempty"`
	TrainingEndDate    string             `json:"training_end_date,omitempty"`
	Venue              string             `json:"venue"`
	Headcount          int                `json:"headcount"`
	LineItems          []finance.LineItem `json:"line_items"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TaxRate            decimal.Decimal    `json:"tax_rate"`
	TaxAmount          decimal.Decimal    `json:"tax_amount"`
	TotalAmount        decimal.Decimal    `json:"total_amount"`
	Notes              string             `json:"notes"`
	Status             string             `json:"status"`
	CreatedBy          uuid.UUID          `json:"created_by"`
	ApprovedBy         *uuid.UUID         `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time         `json:"approved_at,omitempty"`
	IssuedBy           *uuid.UUID         `json:"issued_by,omitempty"`
	IssuedAt           *time.Time         `json:"issued_at,omitempty"`
	CancelledBy        *uuid.UUID         `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	PaidAt             *time.Time         `json:"paid_at,omitempty"`
	Version            int                `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// ToInvoiceResponse converts an invoice to its read model
func ToInvoiceResponse(inv *finance.Invoice) InvoiceResponse {
	items := inv.LineItems
	if items == nil {
		items = []finance.LineItem{}
	}
	return InvoiceResponse{
		ID:                 inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		SessionID:          inv.SessionID,
		CompanyID:          inv.CompanyID,
		CompanyName:        inv.CompanyName,
		ProgrammeName:      inv.ProgrammeName,
		TrainingStartDate:  formatDate(inv.TrainingStartDate),
		TrainingEndDate:    formatDate(inv.TrainingEndDate),
		Venue:              inv.Venue,
		Headcount:          inv.Headcount,
		LineItems:          items,
		Subtotal:           inv.Subtotal,
		TaxRate:            inv.TaxRate,
		TaxAmount:          inv.TaxAmount,
		TotalAmount:        inv.TotalAmount,
		Notes:              inv.Notes,
		Status:             string(inv.Status),
		CreatedBy:          inv.CreatedBy,
		ApprovedBy:         inv.ApprovedBy,
		ApprovedAt:         inv.ApprovedAt,
		IssuedBy:           inv.IssuedBy,
		IssuedAt:           inv.IssuedAt,
		CancelledBy:        inv.CancelledBy,
		CancelledAt:        inv.CancelledAt,
		CancellationReason: inv.CancellationReason,
		PaidAt:             inv.PaidAt,
		Version:            inv.Version,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

// InvoiceListResponse is a page of invoices
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int64             `json:"total"`
}

// InvoiceListFilter narrows an invoice listing
type InvoiceListFilter struct {
	Status    string
	CompanyID *uuid.UUID
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// UpdateInvoiceInput is a partial invoice update; nil fields are left unchanged
type UpdateInvoiceInput struct {
	CompanyName       *string
	ProgrammeName     *string
	TrainingStartDate *time.Time
	TrainingEndDate   *time.Time
	Venue             *string
	Headcount         *int
	LineItems         *[]finance.LineItem
	Subtotal          *decimal.Decimal
	TaxRate           *decimal.Decimal
	TotalAmount       *decimal.Decimal
	Notes             *string
	Status            *string
}

// =============================================================================
// Payment DTOs
// =============================================================================

// RecordPaymentInput is a payment received against an issued invoice
type RecordPaymentInput struct {
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	PaymentDate     time.Time
	PaymentMethod   string
	ReferenceNumber string
	Notes           string
	// IdempotencyKey deduplicates client retries when set
	IdempotencyKey string
}

// PaymentResponse is the read model of a payment
type PaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"payment_date"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
	RecordedBy      uuid.UUID       `json:"recorded_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RecordPaymentResult is the outcome of recording a payment
type RecordPaymentResult struct {
	Payment       PaymentResponse `json:"payment"`
	InvoiceStatus string          `json:"invoice_status,omitempty"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	// Replayed is true when an earlier payment was returned for the same idempotency key
	Replayed bool `json:"replayed"`
}

// ToPaymentResponse converts a payment to its read model
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		PaymentDate:     formatDate(p.PaymentDate),
		PaymentMethod:   string(p.Method),
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		RecordedBy:      p.RecordedBy,
		CreatedAt:       p.CreatedAt,
	}
}

// =============================================================================
// Costing DTOs
// =============================================================================

// TrainerFeeInput is one trainer fee line of a costing save
type TrainerFeeInput struct {
	TrainerID   uuid.UUID
	TrainerName string
	Role        string
	FeeAmount   decimal.Decimal
	Remark      string
}

// CoordinatorFeeInput is the coordinator fee of a costing save
type CoordinatorFeeInput struct {
	CoordinatorID   uuid.UUID
	CoordinatorName string
	NumDays         int
	DailyRate       decimal.Decimal
	TotalFee        decimal.Decimal
}

// ExpenseInput is one cash expense line of a costing save
type ExpenseInput struct {
	Category        string
	Description     string
	ExpenseType     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	PercentageRate  decimal.Decimal
	EstimatedAmount decimal.Decimal
	ActualAmount    decimal.Decimal
	Remark          string
}

// MarketingInput configures the marketing attribution of a session
type MarketingInput struct {
	MarketingUserID uuid.UUID
	CommissionType  string
	CommissionRate  decimal.Decimal
	FixedAmount     decimal.Decimal
}

// TrainerFeeResponse is a trainer fee line of the costing view
type TrainerFeeResponse struct {
	ID          uuid.UUID       `json:"id"`
	TrainerID   uuid.UUID       `json:"trainer_id"`
	TrainerName string          `json:"trainer_name"`
	Role        string          `json:"role"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	Remark      string          `json:"remark"`
	Status      string          `json:"status"`
	PaidDate    string          `json:"paid_date,omitempty"`
}

// CoordinatorFeeResponse is the coordinator fee of the costing view
type CoordinatorFeeResponse struct {
	ID              uuid.UUID       `json:"id"`
	CoordinatorID   uuid.UUID       `json:"coordinator_id"`
	CoordinatorName string          `json:"coordinator_name"`
	NumDays         int             `json:"num_days"`
	DailyRate       decimal.Decimal `json:"daily_rate"`
	TotalFee        decimal.Decimal `json:"total_fee"`
	Status          string          `json:"status"`
	PaidDate        string          `json:"paid_date,omitempty"`
}

// ExpenseResponse is a cash expense line of the costing view
type ExpenseResponse struct {
	ID              uuid.UUID       `json:"id"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	ExpenseType     string          `json:"expense_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	PercentageRate  decimal.Decimal `json:"percentage_rate"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount"`
	ActualAmount    decimal.Decimal `json:"actual_amount"`
	Remark          string          `json:"remark"`
}

// MarketingResponse is the marketing configuration of the costing view
type MarketingResponse struct {
	MarketingUserID  uuid.UUID       `json:"marketing_user_id"`
	CommissionType   string          `json:"commission_type"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	FixedAmount      decimal.Decimal `json:"fixed_amount"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
	Status           string          `json:"status"`
}

// CostingResponse is the profit projection of a session
type CostingResponse struct {
	SessionID   uuid.UUID `json:"session_id"`
	SessionName string    `json:"session_name"`
	CompanyName string    `json:"company_name"`
	// InvoiceTotal is the pre-tax invoice amount the costing formula taxes
	InvoiceTotal          decimal.Decimal               `json:"invoice_total"`
	TaxRate               decimal.Decimal               `json:"tax_rate"`
	TaxAmount             decimal.Decimal               `json:"tax_amount"`
	GrossRevenue          decimal.Decimal               `json:"gross_revenue"`
	TrainerFeesTotal      decimal.Decimal               `json:"trainer_fees_total"`
	CoordinatorFeesTotal  decimal.Decimal               `json:"coordinator_fees_total"`
	CashExpensesTotal     decimal.Decimal               `json:"cash_expenses_total"`
	DirectCostsTotal      decimal.Decimal               `json:"direct_costs_total"`
	ProfitBeforeMarketing decimal.Decimal               `json:"profit_before_marketing"`
	MarketingCommission   decimal.Decimal               `json:"marketing_commission"`
	Profit                decimal.Decimal               `json:"profit"`
	ProfitMargin          decimal.Decimal               `json:"profit_margin"`
	TrainerFees           []TrainerFeeResponse          `json:"trainer_fees"`
	CoordinatorFee        *CoordinatorFeeResponse       `json:"coordinator_fee"`
	Expenses              []ExpenseResponse             `json:"expenses"`
	Marketing             *MarketingResponse            `json:"marketing"`
	ExpenseCategories     []finance.ExpenseCategoryInfo `json:"expense_categories,omitempty"`
}

// =============================================================================
// Income DTOs
// =============================================================================

// IncomeView selects which income ledger is read
type IncomeView string

const (
	IncomeViewTrainer     IncomeView = "trainer"
	IncomeViewCoordinator IncomeView = "coordinator"
	IncomeViewMarketing   IncomeView = "marketing"
)

// IncomeQuery identifies whose income is read
type IncomeQuery struct {
	View     IncomeView
	PersonID uuid.UUID
	// Year and Month are validated but do not narrow the records
	Year  *int
	Month *int
}

// IncomeRecord is one payable line of an income view
type IncomeRecord struct {
	ID             uuid.UUID        `json:"id"`
	SessionID      uuid.UUID        `json:"session_id"`
	SessionName    string           `json:"session_name"`
	DateRange      string           `json:"date_range"`
	CompanyName    string           `json:"company_name,omitempty"`
	Role           string           `json:"role,omitempty"`
	NumDays        int              `json:"num_days,omitempty"`
	DailyRate      *decimal.Decimal `json:"daily_rate,omitempty"`
	CommissionType string           `json:"commission_type,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         string           `json:"status"`
	PaidDate       string           `json:"paid_date,omitempty"`
	Remark         string           `json:"remark,omitempty"`
}

// IncomeResult is an income view: the records and their paid/pending split
type IncomeResult struct {
	View    IncomeView
	Records []IncomeRecord
	Summary finance.IncomeSummary
}

// SummaryJSON renders the summary under the key names of the view
func (r IncomeResult) SummaryJSON() map[string]decimal.Decimal {
	var total, paid, pending string
	switch r.View {
	case IncomeViewCoordinator:
		total, paid, pending = "total_fees", "paid_fees", "pending_fees"
	case IncomeViewMarketing:
		total, paid, pending = "total_commission", "paid_commission", "pending_commission"
	default:
		total, paid, pending = "total_income", "paid_income", "pending_income"
	}
	return map[string]decimal.Decimal{
		total:   r.Summary.Total,
		paid:    r.Summary.Paid,
		pending: r.Summary.Pending,
	}
}

// PayableResponse is the state of a payable after mark-paid
type PayableResponse struct {
	ID       uuid.UUID       `json:"id"`
	Kind     string          `json:"kind"`
	PayeeID  uuid.UUID       `json:"payee_id"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
	PaidDate string          `json:"paid_date,omitempty"`
	PaidBy   *uuid.UUID      `json:"paid_by,omitempty"`
	// Changed is false when the record had already been paid
	Changed bool `json:"changed"`
}

// =============================================================================
// Dashboard, audit and users
// =============================================================================

// DashboardInvoices counts invoices per lifecycle bucket
type DashboardInvoices struct {
	Total     int64 `json:"total"`
	Draft     int64 `json:"draft"`
	Approved  int64 `json:"approved"`
	Issued    int64 `json:"issued"`
	Paid      int64 `json:"paid"`
	Cancelled int64 `json:"cancelled"`
}

// DashboardFinancials sums receivables
type DashboardFinancials struct {
	TotalIssued            decimal.Decimal `json:"total_issued"`
	TotalCollected         decimal.Decimal `json:"total_collected"`
	OutstandingReceivables decimal.Decimal `json:"outstanding_receivables"`
}

// DashboardPayables sums money still owed to trainers, coordinators and marketing
type DashboardPayables struct {
	TrainerPending     decimal.Decimal `json:"trainer_pending"`
	CoordinatorPending decimal.Decimal `json:"coordinator_pending"`
	CommissionPending  decimal.Decimal `json:"commission_pending"`
	PendingTotal       decimal.Decimal `json:"pending_total"`
}

// DashboardResponse is the finance overview
type DashboardResponse struct {
	Invoices   DashboardInvoices   `json:"invoices"`
	Financials DashboardFinancials `json:"financials"`
	Payables   DashboardPayables   `json:"payables"`
}

// AuditLogQuery filters the audit trail
type AuditLogQuery struct {
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
}

// AuditEntryResponse is an audit entry with the actor's display name
type AuditEntryResponse struct {
	ID            string         `json:"id"`
	EntityType    string         `json:"entity_type"`
	EntityID      uuid.UUID      `json:"entity_id"`
	Action        string         `json:"action"`
	Before        map[string]any `json:"before,omitempty"`
	After         map[string]any `json:"after,omitempty"`
	ChangedBy     uuid.UUID      `json:"changed_by"`
	ChangedByName string         `json:"changed_by_name"`
	Reason        string         `json:"reason,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// MarketingUserResponse is a user that can be credited with a commission
type MarketingUserResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
