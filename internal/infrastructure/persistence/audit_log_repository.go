package persistence

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements the append-only AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db  *gorm.DB
	ids *snowflake.Node
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository.
// Entry IDs are drawn from the snowflake node so they sort by creation time.
func NewGormAuditLogRepository(db *gorm.DB, ids *snowflake.Node) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db, ids: ids}
}

// NewAuditIDNode creates the snowflake node used for audit entry IDs
func NewAuditIDNode(nodeID int64) (*snowflake.Node, error) {
	return snowflake.NewNode(nodeID)
}

// Append inserts an entry, assigning its ID when empty
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *finance.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = r.ids.Generate().String()
	}
	return r.db.WithContext(ctx).Create(models.FinanceAuditLogModelFromDomain(entry)).Error
}

// List returns entries newest first
func (r *GormAuditLogRepository) List(ctx context.Context, filter finance.AuditLogFilter) ([]*finance.AuditEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.FinanceAuditLogModel{})
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	var logModels []models.FinanceAuditLogModel
	if err := query.
		Order("timestamp DESC").
		Order("id DESC").
		Limit(filter.EffectiveLimit()).
		Find(&logModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*finance.AuditEntry, len(logModels))
	for i := range logModels {
		entries[i] = logModels[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ finance.AuditLogRepository = (*GormAuditLogRepository)(nil)
