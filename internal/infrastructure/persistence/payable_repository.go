package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMarketingCommissionRepository implements MarketingCommissionRepository using GORM
type GormMarketingCommissionRepository struct {
	db *gorm.DB
}

// NewGormMarketingCommissionRepository creates a new GormMarketingCommissionRepository
func NewGormMarketingCommissionRepository(db *gorm.DB) *GormMarketingCommissionRepository {
	return &GormMarketingCommissionRepository{db: db}
}

// FindByID finds a commission by its ID
func (r *GormMarketingCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.MarketingCommission, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a commission and locks its row until the transaction ends
func (r *GormMarketingCommissionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.MarketingCommission, error) {
	return r.findByID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormMarketingCommissionRepository) findByID(query *gorm.DB, id uuid.UUID) (*finance.MarketingCommission, error) {
	var model models.MarketingCommissionModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySessionID finds the commission of a session
func (r *GormMarketingCommissionRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*finance.MarketingCommission, error) {
	var model models.MarketingCommissionModel
	if err := r.db.WithContext(ctx).First(&model, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMarketingUser lists a marketing user's commissions newest first
func (r *GormMarketingCommissionRepository) FindByMarketingUser(ctx context.Context, userID uuid.UUID) ([]*finance.MarketingCommission, error) {
	var commissionModels []models.MarketingCommissionModel
	if err := r.db.WithContext(ctx).
		Where("marketing_user_id = ?", userID).
		Order("created_at DESC").
		Find(&commissionModels).Error; err != nil {
		return nil, err
	}
	commissions := make([]*finance.MarketingCommission, len(commissionModels))
	for i := range commissionModels {
		commissions[i] = commissionModels[i].ToDomain()
	}
	return commissions, nil
}

// Save creates or updates the commission
func (r *GormMarketingCommissionRepository) Save(ctx context.Context, commission *finance.MarketingCommission) error {
	return r.db.WithContext(ctx).Save(models.MarketingCommissionModelFromDomain(commission)).Error
}

// SumByStatus sums calculated amounts over the given statuses
func (r *GormMarketingCommissionRepository) SumByStatus(ctx context.Context, statuses ...finance.CommissionStatus) (decimal.Decimal, error) {
	return sumColumn(r.db.WithContext(ctx).Model(&models.MarketingCommissionModel{}).Where("status IN ?", statuses), "calculated_amount")
}

// GormTrainerIncomeRepository implements TrainerIncomeRepository using GORM
type GormTrainerIncomeRepository struct {
	db *gorm.DB
}

// NewGormTrainerIncomeRepository creates a new GormTrainerIncomeRepository
func NewGormTrainerIncomeRepository(db *gorm.DB) *GormTrainerIncomeRepository {
	return &GormTrainerIncomeRepository{db: db}
}

// FindByID finds a trainer fee by its ID
func (r *GormTrainerIncomeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.TrainerIncome, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a trainer fee and locks its row until the transaction ends
func (r *GormTrainerIncomeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.TrainerIncome, error) {
	return r.findByID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormTrainerIncomeRepository) findByID(query *gorm.DB, id uuid.UUID) (*finance.TrainerIncome, error) {
	var model models.TrainerIncomeModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySessionID lists the trainer fees of a session
func (r *GormTrainerIncomeRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*finance.TrainerIncome, error) {
	return r.find(ctx, "session_id = ?", sessionID)
}

// FindByTrainer lists a trainer's fees newest first
func (r *GormTrainerIncomeRepository) FindByTrainer(ctx context.Context, trainerID uuid.UUID) ([]*finance.TrainerIncome, error) {
	return r.find(ctx, "trainer_id = ?", trainerID)
}

func (r *GormTrainerIncomeRepository) find(ctx context.Context, cond string, args ...any) ([]*finance.TrainerIncome, error) {
	var incomeModels []models.TrainerIncomeModel
	if err := r.db.WithContext(ctx).Where(cond, args...).Order("created_at DESC").Find(&incomeModels).Error; err != nil {
		return nil, err
	}
	incomes := make([]*finance.TrainerIncome, len(incomeModels))
	for i := range incomeModels {
		incomes[i] = incomeModels[i].ToDomain()
	}
	return incomes, nil
}

// ReplacePendingForSession deletes the session's pending fees and inserts incomes
func (r *GormTrainerIncomeRepository) ReplacePendingForSession(ctx context.Context, sessionID uuid.UUID, incomes []*finance.TrainerIncome) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("session_id = ? AND status = ?", sessionID, finance.PayableStatusPending).
		Delete(&models.TrainerIncomeModel{}).Error; err != nil {
		return err
	}
	if len(incomes) == 0 {
		return nil
	}
	incomeModels := make([]*models.TrainerIncomeModel, len(incomes))
	for i, income := range incomes {
		incomeModels[i] = models.TrainerIncomeModelFromDomain(income)
	}
	return db.Create(&incomeModels).Error
}

// Save updates a single trainer fee
func (r *GormTrainerIncomeRepository) Save(ctx context.Context, income *finance.TrainerIncome) error {
	return r.db.WithContext(ctx).Save(models.TrainerIncomeModelFromDomain(income)).Error
}

// SumByStatus sums fee amounts with the given payout status
func (r *GormTrainerIncomeRepository) SumByStatus(ctx context.Context, status finance.PayableStatus) (decimal.Decimal, error) {
	return sumColumn(r.db.WithContext(ctx).Model(&models.TrainerIncomeModel{}).Where("status = ?", status), "fee_amount")
}

// GormCoordinatorFeeRepository implements CoordinatorFeeRepository using GORM
type GormCoordinatorFeeRepository struct {
	db *gorm.DB
}

// NewGormCoordinatorFeeRepository creates a new GormCoordinatorFeeRepository
func NewGormCoordinatorFeeRepository(db *gorm.DB) *GormCoordinatorFeeRepository {
	return &GormCoordinatorFeeRepository{db: db}
}

// FindByID finds a coordinator fee by its ID
func (r *GormCoordinatorFeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.CoordinatorFee, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a coordinator fee and locks its row until the transaction ends
func (r *GormCoordinatorFeeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.CoordinatorFee, error) {
	return r.findByID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormCoordinatorFeeRepository) findByID(query *gorm.DB, id uuid.UUID) (*finance.CoordinatorFee, error) {
	var model models.CoordinatorFeeModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySessionID finds the coordinator fee of a session
func (r *GormCoordinatorFeeRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*finance.CoordinatorFee, error) {
	var model models.CoordinatorFeeModel
	if err := r.db.WithContext(ctx).First(&model, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCoordinator lists a coordinator's fees newest first
func (r *GormCoordinatorFeeRepository) FindByCoordinator(ctx context.Context, coordinatorID uuid.UUID) ([]*finance.CoordinatorFee, error) {
	var feeModels []models.CoordinatorFeeModel
	if err := r.db.WithContext(ctx).
		Where("coordinator_id = ?", coordinatorID).
		Order("created_at DESC").
		Find(&feeModels).Error; err != nil {
		return nil, err
	}
	fees := make([]*finance.CoordinatorFee, len(feeModels))
	for i := range feeModels {
		fees[i] = feeModels[i].ToDomain()
	}
	return fees, nil
}

// Save creates or updates the coordinator fee
func (r *GormCoordinatorFeeRepository) Save(ctx context.Context, fee *finance.CoordinatorFee) error {
	return r.db.WithContext(ctx).Save(models.CoordinatorFeeModelFromDomain(fee)).Error
}

// SumByStatus sums fee totals with the given payout status
func (r *GormCoordinatorFeeRepository) SumByStatus(ctx context.Context, status finance.PayableStatus) (decimal.Decimal, error) {
	return sumColumn(r.db.WithContext(ctx).Model(&models.CoordinatorFeeModel{}).Where("status = ?", status), "total_fee")
}

// GormCashExpenseRepository implements CashExpenseRepository using GORM
type GormCashExpenseRepository struct {
	db *gorm.DB
}

// NewGormCashExpenseRepository creates a new GormCashExpenseRepository
func NewGormCashExpenseRepository(db *gorm.DB) *GormCashExpenseRepository {
	return &GormCashExpenseRepository{db: db}
}

// FindBySessionID lists a session's expenses in entry order
func (r *GormCashExpenseRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*finance.CashExpense, error) {
	var expenseModels []models.CashExpenseModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]*finance.CashExpense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = expenseModels[i].ToDomain()
	}
	return expenses, nil
}

// ReplaceForSession swaps the whole expense set of a session
func (r *GormCashExpenseRepository) ReplaceForSession(ctx context.Context, sessionID uuid.UUID, expenses []*finance.CashExpense) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("session_id = ?", sessionID).Delete(&models.CashExpenseModel{}).Error; err != nil {
		return err
	}
	if len(expenses) == 0 {
		return nil
	}
	expenseModels := make([]*models.CashExpenseModel, len(expenses))
	for i, e := range expenses {
		expenseModels[i] = models.CashExpenseModelFromDomain(e)
	}
	return db.Create(&expenseModels).Error
}

// Ensure the payable repositories implement their domain interfaces
var (
	_ finance.MarketingCommissionRepository = (*GormMarketingCommissionRepository)(nil)
	_ finance.TrainerIncomeRepository       = (*GormTrainerIncomeRepository)(nil)
	_ finance.CoordinatorFeeRepository      = (*GormCoordinatorFeeRepository)(nil)
	_ finance.CashExpenseRepository         = (*GormCashExpenseRepository)(nil)
)
