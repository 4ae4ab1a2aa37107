package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
)

// UnknownUserName is shown for audit entries whose actor cannot be resolved
const UnknownUserName = "Unknown"

// AuditService reads the finance audit trail
type AuditService struct {
	auditRepo finance.AuditLogRepository
	userRepo  identity.UserRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo finance.AuditLogRepository, userRepo identity.UserRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo, userRepo: userRepo}
}

// List returns audit entries newest first, each with the actor's full name
func (s *AuditService) List(ctx context.Context, q AuditLogQuery) ([]AuditEntryResponse, error) {
	filter := finance.AuditLogFilter{EntityID: q.EntityID, Limit: q.Limit}
	if q.EntityType != "" {
		et := finance.AuditEntityType(q.EntityType)
		if !et.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown entity type: "+q.EntityType)
		}
		filter.EntityType = &et
	}

	entries, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	actorIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.ChangedBy != uuid.Nil {
			actorIDs = append(actorIDs, e.ChangedBy)
		}
	}
	users, err := s.userRepo.FindByIDs(ctx, uniqueIDs(actorIDs))
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	resp := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		name := names[e.ChangedBy]
		if name == "" {
			name = UnknownUserName
		}
		resp[i] = AuditEntryResponse{
			ID:            e.ID,
			EntityType:    string(e.EntityType),
			EntityID:      e.EntityID,
			Action:        string(e.Action),
			Before:        e.Before,
			After:         e.After,
			ChangedBy:     e.ChangedBy,
			ChangedByName: name,
			Reason:        e.Reason,
			Timestamp:     e.Timestamp,
		}
	}
	return resp, nil
}
