package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/training"
	"gorm.io/datatypes"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber      string                                `gorm:"type:varchar(50);not null;uniqueIndex"`
	SessionID          uuid.UUID                             `gorm:"type:uuid;not null;uniqueIndex"`
	CompanyID          uuid.UUID                             `gorm:"type:uuid;index"`
	CompanyName        string                                `gorm:"type:varchar(200)"`
	ProgrammeName      string                                `gorm:"type:varchar(200)"`
	TrainingStartDate  time.Time                             `gorm:"type:date"`
	TrainingEndDate    time.Time                             `gorm:"type:date"`
	Venue              string                                `gorm:"type:varchar(300)"`
	Headcount          int                                   `gorm:"not null;default:0"`
	LineItems          datatypes.JSONSlice[finance.LineItem] `gorm:"type:jsonb"`
	Subtotal           decimal.Decimal                       `gorm:"type:decimal(15,2);not null"`
	TaxRate            decimal.Decimal                       `gorm:"type:decimal(5,2);not null"`
	TaxAmount          decimal.Decimal                       `gorm:"type:decimal(15,2);not null"`
	TotalAmount        decimal.Decimal                       `gorm:"type:decimal(15,2);not null"`
	Notes              string                                `gorm:"type:text"`
	Status             finance.InvoiceStatus                 `gorm:"type:varchar(20);not null;index"`
	CreatedBy          uuid.UUID                             `gorm:"type:uuid"`
	ApprovedBy         *uuid.UUID                            `gorm:"type:uuid"`
	ApprovedAt         *time.Time
	IssuedBy           *uuid.UUID `gorm:"type:uuid"`
	IssuedAt           *time.Time
	CancelledBy        *uuid.UUID `gorm:"type:uuid"`
	CancelledAt        *time.Time
	CancellationReason string `gorm:"type:varchar(500)"`
	PaidAt             *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	items := make([]finance.LineItem, len(m.LineItems))
	copy(items, m.LineItems)
	return &finance.Invoice{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		InvoiceNumber:      m.InvoiceNumber,
		SessionID:          m.SessionID,
		CompanyID:          m.CompanyID,
		CompanyName:        m.CompanyName,
		ProgrammeName:      m.ProgrammeName,
		TrainingStartDate:  m.TrainingStartDate,
		TrainingEndDate:    m.TrainingEndDate,
		Venue:              m.Venue,
		Headcount:          m.Headcount,
		LineItems:          items,
		Subtotal:           m.Subtotal,
		TaxRate:            m.TaxRate,
		TaxAmount:          m.TaxAmount,
		TotalAmount:        m.TotalAmount,
		Notes:              m.Notes,
		Status:             m.Status,
		CreatedBy:          m.CreatedBy,
		ApprovedBy:         m.ApprovedBy,
		ApprovedAt:         m.ApprovedAt,
		IssuedBy:           m.IssuedBy,
		IssuedAt:           m.IssuedAt,
		CancelledBy:        m.CancelledBy,
		CancelledAt:        m.CancelledAt,
		CancellationReason: m.CancellationReason,
		PaidAt:             m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.SessionID = inv.SessionID
	m.CompanyID = inv.CompanyID
	m.CompanyName = inv.CompanyName
	m.ProgrammeName = inv.ProgrammeName
	m.TrainingStartDate = inv.TrainingStartDate
	m.TrainingEndDate = inv.TrainingEndDate
	m.Venue = inv.Venue
	m.Headcount = inv.Headcount
	m.LineItems = datatypes.JSONSlice[finance.LineItem](inv.LineItems)
	if m.LineItems == nil {
		m.LineItems = datatypes.JSONSlice[finance.LineItem]{}
	}
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.Notes = inv.Notes
	m.Status = inv.Status
	m.CreatedBy = inv.CreatedBy
	m.ApprovedBy = inv.ApprovedBy
	m.ApprovedAt = inv.ApprovedAt
	m.IssuedBy = inv.IssuedBy
	m.IssuedAt = inv.IssuedAt
	m.CancelledBy = inv.CancelledBy
	m.CancelledAt = inv.CancelledAt
	m.CancellationReason = inv.CancellationReason
	m.PaidAt = inv.PaidAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceCounterModel holds the last allocated invoice sequence per prefix and year.
type InvoiceCounterModel struct {
	Prefix    string `gorm:"type:varchar(10);primaryKey"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceCounterModel) TableName() string {
	return "invoice_counters"
}

// PaymentModel is the persistence model for ledger payments.
type PaymentModel struct {
	ID              uuid.UUID             `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	PaymentDate     time.Time             `gorm:"type:date;not null"`
	PaymentMethod   finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNumber string                `gorm:"type:varchar(100)"`
	Notes           string                `gorm:"type:text"`
	RecordedBy      uuid.UUID             `gorm:"type:uuid"`
	CreatedAt       time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		Amount:          m.Amount,
		PaymentDate:     m.PaymentDate,
		Method:          m.PaymentMethod,
		ReferenceNumber: m.ReferenceNumber,
		Notes:           m.Notes,
		RecordedBy:      m.RecordedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	return &PaymentModel{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		PaymentMethod:   p.Method,
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		RecordedBy:      p.RecordedBy,
		CreatedAt:       p.CreatedAt,
	}
}

// MarketingCommissionModel is the persistence model for marketing commissions.
type MarketingCommissionModel struct {
	BaseModel
	SessionID        uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex"`
	MarketingUserID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	CommissionType   training.CommissionType  `gorm:"type:varchar(20);not null"`
	CommissionRate   decimal.Decimal          `gorm:"type:decimal(5,2);not null"`
	FixedAmount      decimal.Decimal          `gorm:"type:decimal(15,2);not null"`
	CalculatedAmount decimal.Decimal          `gorm:"type:decimal(15,2);not null"`
	InvoiceID        *uuid.UUID               `gorm:"type:uuid"`
	Status           finance.CommissionStatus `gorm:"type:varchar(20);not null;index"`
	FinalizedAt      *time.Time
	PaidDate         string     `gorm:"type:varchar(10)"`
	PaidBy           *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (MarketingCommissionModel) TableName() string {
	return "marketing_commissions"
}

// ToDomain converts the persistence model to a domain MarketingCommission.
func (m *MarketingCommissionModel) ToDomain() *finance.MarketingCommission {
	return &finance.MarketingCommission{
		BaseEntity:      m.BaseModel.ToDomain(),
		SessionID:       m.SessionID,
		MarketingUserID: m.MarketingUserID,
		Terms: finance.CommissionTerms{
			Type:        m.CommissionType,
			Rate:        m.CommissionRate,
			FixedAmount: m.FixedAmount,
		},
		CalculatedAmount: m.CalculatedAmount,
		InvoiceID:        m.InvoiceID,
		Status:           m.Status,
		FinalizedAt:      m.FinalizedAt,
		PaidDate:         m.PaidDate,
		PaidBy:           m.PaidBy,
	}
}

// MarketingCommissionModelFromDomain creates a new persistence model from a domain MarketingCommission.
func MarketingCommissionModelFromDomain(c *finance.MarketingCommission) *MarketingCommissionModel {
	m := &MarketingCommissionModel{
		SessionID:        c.SessionID,
		MarketingUserID:  c.MarketingUserID,
		CommissionType:   c.Terms.Type,
		CommissionRate:   c.Terms.Rate,
		FixedAmount:      c.Terms.FixedAmount,
		CalculatedAmount: c.CalculatedAmount,
		InvoiceID:        c.InvoiceID,
		Status:           c.Status,
		FinalizedAt:      c.FinalizedAt,
		PaidDate:         c.PaidDate,
		PaidBy:           c.PaidBy,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// TrainerIncomeModel is the persistence model for trainer fees.
type TrainerIncomeModel struct {
	BaseModel
	SessionID   uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_trainer_incomes_session_trainer"`
	TrainerID   uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_trainer_incomes_session_trainer"`
	TrainerName string                `gorm:"type:varchar(200)"`
	Role        finance.TrainerRole   `gorm:"type:varchar(20);not null"`
	FeeAmount   decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	Remark      string                `gorm:"type:text"`
	Status      finance.PayableStatus `gorm:"type:varchar(20);not null;index"`
	PaidDate    string                `gorm:"type:varchar(10)"`
	PaidBy      *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (TrainerIncomeModel) TableName() string {
	return "trainer_incomes"
}

// ToDomain converts the persistence model to a domain TrainerIncome.
func (m *TrainerIncomeModel) ToDomain() *finance.TrainerIncome {
	return &finance.TrainerIncome{
		BaseEntity:  m.BaseModel.ToDomain(),
		Payout:      finance.Payout{Status: m.Status, PaidDate: m.PaidDate, PaidBy: m.PaidBy},
		SessionID:   m.SessionID,
		TrainerID:   m.TrainerID,
		TrainerName: m.TrainerName,
		Role:        m.Role,
		Amount:      m.FeeAmount,
		Remark:      m.Remark,
	}
}

// TrainerIncomeModelFromDomain creates a new persistence model from a domain TrainerIncome.
func TrainerIncomeModelFromDomain(t *finance.TrainerIncome) *TrainerIncomeModel {
	m := &TrainerIncomeModel{
		SessionID:   t.SessionID,
		TrainerID:   t.TrainerID,
		TrainerName: t.TrainerName,
		Role:        t.Role,
		FeeAmount:   t.Amount,
		Remark:      t.Remark,
		Status:      t.Status,
		PaidDate:    t.PaidDate,
		PaidBy:      t.PaidBy,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// CoordinatorFeeModel is the persistence model for coordinator fees.
type CoordinatorFeeModel struct {
	BaseModel
	SessionID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	CoordinatorID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	CoordinatorName string                `gorm:"type:varchar(200)"`
	NumDays         int                   `gorm:"not null;default:0"`
	DailyRate       decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	TotalFee        decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	Status          finance.PayableStatus `gorm:"type:varchar(20);not null;index"`
	PaidDate        string                `gorm:"type:varchar(10)"`
	PaidBy          *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CoordinatorFeeModel) TableName() string {
	return "coordinator_fees"
}

// ToDomain converts the persistence model to a domain CoordinatorFee.
func (m *CoordinatorFeeModel) ToDomain() *finance.CoordinatorFee {
	return &finance.CoordinatorFee{
		BaseEntity:      m.BaseModel.ToDomain(),
		Payout:          finance.Payout{Status: m.Status, PaidDate: m.PaidDate, PaidBy: m.PaidBy},
		SessionID:       m.SessionID,
		CoordinatorID:   m.CoordinatorID,
		CoordinatorName: m.CoordinatorName,
		NumDays:         m.NumDays,
		DailyRate:       m.DailyRate,
		Amount:          m.TotalFee,
	}
}

// CoordinatorFeeModelFromDomain creates a new persistence model from a domain CoordinatorFee.
func CoordinatorFeeModelFromDomain(f *finance.CoordinatorFee) *CoordinatorFeeModel {
	m := &CoordinatorFeeModel{
		SessionID:       f.SessionID,
		CoordinatorID:   f.CoordinatorID,
		CoordinatorName: f.CoordinatorName,
		NumDays:         f.NumDays,
		DailyRate:       f.DailyRate,
		TotalFee:        f.Amount,
		Status:          f.Status,
		PaidDate:        f.PaidDate,
		PaidBy:          f.PaidBy,
	}
	m.FromDomainBaseEntity(f.BaseEntity)
	return m
}

// CashExpenseModel is the persistence model for session cash expenses.
type CashExpenseModel struct {
	BaseModel
	SessionID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Category        finance.ExpenseCategory `gorm:"type:varchar(30);not null"`
	Description     string                  `gorm:"type:varchar(300)"`
	ExpenseType     finance.ExpenseType     `gorm:"type:varchar(20);not null"`
	Quantity        decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	UnitPrice       decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	PercentageRate  decimal.Decimal         `gorm:"type:decimal(5,2);not null"`
	EstimatedAmount decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	ActualAmount    decimal.Decimal         `gorm:"type:decimal(15,2);not null"`
	Remark          string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CashExpenseModel) TableName() string {
	return "cash_expenses"
}

// ToDomain converts the persistence model to a domain CashExpense.
func (m *CashExpenseModel) ToDomain() *finance.CashExpense {
	return &finance.CashExpense{
		BaseEntity:      m.BaseModel.ToDomain(),
		SessionID:       m.SessionID,
		Category:        m.Category,
		Description:     m.Description,
		ExpenseType:     m.ExpenseType,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		PercentageRate:  m.PercentageRate,
		EstimatedAmount: m.EstimatedAmount,
		ActualAmount:    m.ActualAmount,
		Remark:          m.Remark,
	}
}

// CashExpenseModelFromDomain creates a new persistence model from a domain CashExpense.
func CashExpenseModelFromDomain(e *finance.CashExpense) *CashExpenseModel {
	m := &CashExpenseModel{
		SessionID:       e.SessionID,
		Category:        e.Category,
		Description:     e.Description,
		ExpenseType:     e.ExpenseType,
		Quantity:        e.Quantity,
		UnitPrice:       e.UnitPrice,
		PercentageRate:  e.PercentageRate,
		EstimatedAmount: e.EstimatedAmount,
		ActualAmount:    e.ActualAmount,
		Remark:          e.Remark,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// FinanceAuditLogModel is the persistence model for audit entries.
// Rows are only ever inserted.
type FinanceAuditLogModel struct {
	ID         string                  `gorm:"type:varchar(32);primary_key"`
	EntityType finance.AuditEntityType `gorm:"type:varchar(30);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID               `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	Action     finance.AuditAction     `gorm:"type:varchar(20);not null"`
	Before     datatypes.JSONMap       `gorm:"type:jsonb"`
	After      datatypes.JSONMap       `gorm:"type:jsonb"`
	ChangedBy  uuid.UUID               `gorm:"type:uuid"`
	Reason     string                  `gorm:"type:text"`
	Timestamp  time.Time               `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FinanceAuditLogModel) TableName() string {
	return "finance_audit_logs"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *FinanceAuditLogModel) ToDomain() *finance.AuditEntry {
	return &finance.AuditEntry{
		ID:         m.ID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		Before:     map[string]any(m.Before),
		After:      map[string]any(m.After),
		ChangedBy:  m.ChangedBy,
		Reason:     m.Reason,
		Timestamp:  m.Timestamp,
	}
}

// FinanceAuditLogModelFromDomain creates a new persistence model from a domain AuditEntry.
func FinanceAuditLogModelFromDomain(e *finance.AuditEntry) *FinanceAuditLogModel {
	return &FinanceAuditLogModel{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Before:     datatypes.JSONMap(e.Before),
		After:      datatypes.JSONMap(e.After),
		ChangedBy:  e.ChangedBy,
		Reason:     e.Reason,
		Timestamp:  e.Timestamp,
	}
}

