package identity

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/shared"
)

// Role is a user's primary or additional role
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleFinance     Role = "finance"
	RoleCoordinator Role = "coordinator"
	RoleTrainer     Role = "trainer"
	RoleMarketing   Role = "marketing"
	RoleParticipant Role = "participant"
)

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes and validates a role string
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Unknown role: "+s)
	}
	return r, nil
}

// Capability is a single resource:action grant
type Capability string

const (
	CapInvoiceRead       Capability = "invoice:read"
	CapInvoiceWrite      Capability = "invoice:write"
	CapInvoiceApprove    Capability = "invoice:approve"
	CapInvoiceIssue      Capability = "invoice:issue"
	CapInvoiceCancel     Capability = "invoice:cancel"
	CapPaymentRead       Capability = "payment:read"
	CapPaymentWrite      Capability = "payment:write"
	CapCostingRead       Capability = "costing:read"
	CapCostingWrite      Capability = "costing:write"
	CapPayableMarkPaid   Capability = "payable:mark_paid"
	CapIncomeReadAny     Capability = "income:read_any"
	CapDashboardRead     Capability = "dashboard:read"
	CapAuditRead         Capability = "audit:read"
	CapUserReadMarketing Capability = "user:read_marketing"
	CapSessionCreate     Capability = "session:create"
	CapSessionRead       Capability = "session:read"
)

// financeCapabilities is the full set held by finance staff and admins.
var financeCapabilities = []Capability{
	CapInvoiceRead, CapInvoiceWrite, CapInvoiceApprove, CapInvoiceIssue, CapInvoiceCancel,
	CapPaymentRead, CapPaymentWrite,
	CapCostingRead, CapCostingWrite,
	CapPayableMarkPaid,
	CapIncomeReadAny,
	CapDashboardRead, CapAuditRead, CapUserReadMarketing,
	CapSessionCreate, CapSessionRead,
}

// roleCapabilities is the single source of truth for what each role may do.
var roleCapabilities = map[Role][]Capability{
	RoleSuperAdmin:  financeCapabilities,
	RoleAdmin:       financeCapabilities,
	RoleFinance:     financeCapabilities,
	RoleCoordinator: {CapInvoiceRead, CapUserReadMarketing, CapSessionCreate, CapSessionRead},
	RoleTrainer:     {CapSessionRead},
	RoleMarketing:   {CapSessionRead},
	RoleParticipant: {},
}

// CapabilitiesOf returns the capabilities granted by a single role
func CapabilitiesOf(role Role) []Capability {
	return slices.Clone(roleCapabilities[role])
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID          uuid.UUID
	Role            Role
	AdditionalRoles []Role
}

// NewActor builds an actor from raw role strings, dropping unknown roles
func NewActor(userID uuid.UUID, role string, additional []string) Actor {
	a := Actor{UserID: userID, Role: Role(strings.ToLower(role))}
	for _, r := range additional {
		if parsed, err := ParseRole(r); err == nil {
			a.AdditionalRoles = append(a.AdditionalRoles, parsed)
		}
	}
	return a
}

// Roles returns the primary role followed by the additional roles
func (a Actor) Roles() []Role {
	roles := make([]Role, 0, len(a.AdditionalRoles)+1)
	if a.Role != "" {
		roles = append(roles, a.Role)
	}
	return append(roles, a.AdditionalRoles...)
}

// HasRole checks primary and additional roles
func (a Actor) HasRole(role Role) bool {
	return slices.Contains(a.Roles(), role)
}

// Capabilities returns the union of the capabilities of all the actor's roles
func (a Actor) Capabilities() map[Capability]struct{} {
	caps := make(map[Capability]struct{})
	for _, r := range a.Roles() {
		for _, c := range roleCapabilities[r] {
			caps[c] = struct{}{}
		}
	}
	return caps
}

// Can reports whether the actor holds every capability given
func (a Actor) Can(caps ...Capability) bool {
	held := a.Capabilities()
	for _, c := range caps {
		if _, ok := held[c]; !ok {
			return false
		}
	}
	return true
}

// CanAny reports whether the actor holds at least one of the capabilities
func (a Actor) CanAny(caps ...Capability) bool {
	held := a.Capabilities()
	for _, c := range caps {
		if _, ok := held[c]; ok {
			return true
		}
	}
	return false
}

// Authorize returns a FORBIDDEN domain error unless the actor holds all caps
func Authorize(actor Actor, caps ...Capability) error {
	if actor.Can(caps...) {
		return nil
	}
	return shared.NewDomainError(shared.CodeForbidden, "Access denied")
}

// AuthorizeOwnerOr allows the owner of a resource, or anyone holding one of caps
func AuthorizeOwnerOr(actor Actor, ownerID uuid.UUID, caps ...Capability) error {
	if ownerID != uuid.Nil && actor.UserID == ownerID {
		return nil
	}
	if actor.CanAny(caps...) {
		return nil
	}
	return shared.NewDomainError(shared.CodeForbidden, "Access denied")
}
