package models

import (
	"github.com/trainhub/backend/internal/domain/identity"
	"gorm.io/datatypes"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Email           string                      `gorm:"type:varchar(200);not null;uniqueIndex"`
	FullName        string                      `gorm:"type:varchar(200);not null"`
	Role            identity.Role               `gorm:"type:varchar(30);not null;index"`
	AdditionalRoles datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	IsActive        bool                        `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	additional := make([]identity.Role, 0, len(m.AdditionalRoles))
	for _, r := range m.AdditionalRoles {
		additional = append(additional, identity.Role(r))
	}
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		FullName:          m.FullName,
		Role:              m.Role,
		AdditionalRoles:   additional,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.FullName = u.FullName
	m.Role = u.Role
	m.AdditionalRoles = make(datatypes.JSONSlice[string], 0, len(u.AdditionalRoles))
	for _, r := range u.AdditionalRoles {
		m.AdditionalRoles = append(m.AdditionalRoles, string(r))
	}
	m.IsActive = u.IsActive
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
