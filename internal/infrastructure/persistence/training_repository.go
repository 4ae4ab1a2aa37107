package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"github.com/trainhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSessionRepository implements SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Save creates or updates a session
func (r *GormSessionRepository) Save(ctx context.Context, session *training.Session) error {
	return r.db.WithContext(ctx).Save(models.TrainingSessionModelFromDomain(session)).Error
}

// FindByID finds a session by its ID
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*training.Session, error) {
	var model models.TrainingSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several sessions at once, skipping unknown IDs
func (r *GormSessionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*training.Session, error) {
	if len(ids) == 0 {
		return []*training.Session{}, nil
	}
	var sessionModels []models.TrainingSessionModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	sessions := make([]*training.Session, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = sessionModels[i].ToDomain()
	}
	return sessions, nil
}

// UpdateInvoiceStatus writes only the invoice status mirror
func (r *GormSessionRepository) UpdateInvoiceStatus(ctx context.Context, sessionID uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.TrainingSessionModel{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"invoice_status": status,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by its ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*training.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// NamesByIDs returns company names keyed by ID
func (r *GormCompanyRepository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (training.Names, error) {
	names := make(training.Names, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.CompanyModel
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// Create inserts a company
func (r *GormCompanyRepository) Create(ctx context.Context, company *training.Company) error {
	model := &models.CompanyModel{Name: company.Name}
	model.FromDomainBaseEntity(company.BaseEntity)
	return r.db.WithContext(ctx).Create(model).Error
}

// GormProgrammeRepository implements ProgrammeRepository using GORM
type GormProgrammeRepository struct {
	db *gorm.DB
}

// NewGormProgrammeRepository creates a new GormProgrammeRepository
func NewGormProgrammeRepository(db *gorm.DB) *GormProgrammeRepository {
	return &GormProgrammeRepository{db: db}
}

// FindByID finds a programme by its ID
func (r *GormProgrammeRepository) FindByID(ctx context.Context, id uuid.UUID) (*training.Programme, error) {
	var model models.ProgrammeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a programme
func (r *GormProgrammeRepository) Create(ctx context.Context, programme *training.Programme) error {
	model := &models.ProgrammeModel{Name: programme.Name, Code: programme.Code}
	model.FromDomainBaseEntity(programme.BaseEntity)
	return r.db.WithContext(ctx).Create(model).Error
}

// Ensure the training repositories implement their domain interfaces
var (
	_ training.SessionRepository   = (*GormSessionRepository)(nil)
	_ training.CompanyRepository   = (*GormCompanyRepository)(nil)
	_ training.ProgrammeRepository = (*GormProgrammeRepository)(nil)
)
