package identity

import (
	"slices"
	"strings"

	"github.com/trainhub/backend/internal/domain/shared"
)

// User is a staff member or participant known to the system.
// Credentials live with the external identity provider; this aggregate
// only carries what authorization and display need.
type User struct {
	shared.BaseAggregateRoot
	Email           string
	FullName        string
	Role            Role
	AdditionalRoles []Role
	IsActive        bool
}

// NewUser creates a new active user
func NewUser(email, fullName string, role Role, additional ...Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Email cannot be empty")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Full name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown role: "+string(role))
	}
	for _, r := range additional {
		if !r.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown role: "+string(r))
		}
	}
	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		FullName:          fullName,
		Role:              role,
		AdditionalRoles:   slices.Clone(additional),
		IsActive:          true,
	}, nil
}

// HasRole checks both the primary and the additional roles
func (u *User) HasRole(role Role) bool {
	return u.Role == role || slices.Contains(u.AdditionalRoles, role)
}

// Actor returns the authorization view of the user
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role, AdditionalRoles: slices.Clone(u.AdditionalRoles)}
}
