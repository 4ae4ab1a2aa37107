package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/training"
)

// CompanyModel is the persistence model for client companies.
type CompanyModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *training.Company {
	return &training.Company{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// ProgrammeModel is the persistence model for training programmes.
type ProgrammeModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
	Code string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (ProgrammeModel) TableName() string {
	return "programmes"
}

// ToDomain converts the persistence model to a domain Programme.
func (m *ProgrammeModel) ToDomain() *training.Programme {
	return &training.Programme{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name, Code: m.Code}
}

// TrainingSessionModel is the persistence model for the Session aggregate root.
type TrainingSessionModel struct {
	AggregateModel
	Name                  string                   `gorm:"type:varchar(200);not null"`
	CompanyID             uuid.UUID                `gorm:"type:uuid;not null;index"`
	ProgrammeID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	StartDate             time.Time                `gorm:"type:date;not null"`
	EndDate               time.Time                `gorm:"type:date;not null"`
	Venue                 string                   `gorm:"type:varchar(300)"`
	ParticipantCount      int                      `gorm:"not null;default:0"`
	MarketingUserID       *uuid.UUID               `gorm:"type:uuid;index"`
	CommissionType        *training.CommissionType `gorm:"type:varchar(20)"`
	CommissionRate        decimal.NullDecimal      `gorm:"type:decimal(5,2)"`
	CommissionFixedAmount decimal.NullDecimal      `gorm:"type:decimal(15,2)"`
	InvoiceID             *uuid.UUID               `gorm:"type:uuid"`
	InvoiceNumber         string                   `gorm:"type:varchar(50)"`
	InvoiceStatus         string                   `gorm:"type:varchar(20)"`
	CreatedBy             uuid.UUID                `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (TrainingSessionModel) TableName() string {
	return "training_sessions"
}

// ToDomain converts the persistence model to a domain Session.
func (m *TrainingSessionModel) ToDomain() *training.Session {
	s := &training.Session{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		CompanyID:         m.CompanyID,
		ProgrammeID:       m.ProgrammeID,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		Venue:             m.Venue,
		ParticipantCount:  m.ParticipantCount,
		InvoiceID:         m.InvoiceID,
		InvoiceNumber:     m.InvoiceNumber,
		InvoiceStatus:     m.InvoiceStatus,
		CreatedBy:         m.CreatedBy,
	}
	if m.MarketingUserID != nil && m.CommissionType != nil {
		s.Marketing = &training.MarketingAttribution{
			UserID:      *m.MarketingUserID,
			Type:        *m.CommissionType,
			Rate:        m.CommissionRate.Decimal,
			FixedAmount: m.CommissionFixedAmount.Decimal,
		}
	}
	return s
}

// FromDomain populates the persistence model from a domain Session.
func (m *TrainingSessionModel) FromDomain(s *training.Session) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Name = s.Name
	m.CompanyID = s.CompanyID
	m.ProgrammeID = s.ProgrammeID
	m.StartDate = s.StartDate
	m.EndDate = s.EndDate
	m.Venue = s.Venue
	m.ParticipantCount = s.ParticipantCount
	m.InvoiceID = s.InvoiceID
	m.InvoiceNumber = s.InvoiceNumber
	m.InvoiceStatus = s.InvoiceStatus
	m.CreatedBy = s.CreatedBy
	m.MarketingUserID = nil
	m.CommissionType = nil
	m.CommissionRate = decimal.NullDecimal{}
	m.CommissionFixedAmount = decimal.NullDecimal{}
	if s.Marketing != nil {
		userID, ctype := s.Marketing.UserID, s.Marketing.Type
		m.MarketingUserID = &userID
		m.CommissionType = &ctype
		m.CommissionRate = decimal.NewNullDecimal(s.Marketing.Rate)
		m.CommissionFixedAmount = decimal.NewNullDecimal(s.Marketing.FixedAmount)
	}
}

// TrainingSessionModelFromDomain creates a new persistence model from a domain Session.
func TrainingSessionModelFromDomain(s *training.Session) *TrainingSessionModel {
	m := &TrainingSessionModel{}
	m.FromDomain(s)
	return m
}
