package finance

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of change recorded in the audit log
type AuditAction string

const (
	AuditActionCreated       AuditAction = "created"
	AuditActionUpdated       AuditAction = "updated"
	AuditActionStatusChanged AuditAction = "status_changed"
)

// AuditEntityType names the kind of record an audit entry refers to
type AuditEntityType string

const (
	AuditEntityInvoice        AuditEntityType = "invoice"
	AuditEntityPayment        AuditEntityType = "payment"
	AuditEntityTrainerIncome  AuditEntityType = AuditEntityType(PayableKindTrainerIncome)
	AuditEntityCoordinatorFee AuditEntityType = AuditEntityType(PayableKindCoordinatorFee)
	AuditEntityCommission     AuditEntityType = AuditEntityType(PayableKindCommission)
	AuditEntitySessionCosting AuditEntityType = "session_costing"
)

// IsValid checks if the entity type is known
func (t AuditEntityType) IsValid() bool {
	switch t {
	case AuditEntityInvoice, AuditEntityPayment, AuditEntityTrainerIncome,
		AuditEntityCoordinatorFee, AuditEntityCommission, AuditEntitySessionCosting:
		return true
	}
	return false
}

// AuditEntry is an immutable record of one finance mutation.
// Entries are only ever appended.
type AuditEntry struct {
	ID         string
	EntityType AuditEntityType
	EntityID   uuid.UUID
	Action     AuditAction
	Before     map[string]any
	After      map[string]any
	ChangedBy  uuid.UUID
	Reason     string
	Timestamp  time.Time
}

// NewAuditEntry builds an entry stamped with the current time. The ID is
// assigned by the audit log on append.
func NewAuditEntry(entityType AuditEntityType, entityID uuid.UUID, action AuditAction, before, after map[string]any, changedBy uuid.UUID, reason string) *AuditEntry {
	return &AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Before:     before,
		After:      after,
		ChangedBy:  changedBy,
		Reason:     reason,
		Timestamp:  time.Now(),
	}
}

// StatusChange is the before/after pair written for status transitions
func StatusChange(from, to string) (map[string]any, map[string]any) {
	return map[string]any{"status": from}, map[string]any{"status": to}
}
