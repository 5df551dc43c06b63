package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFinancialEntityRepository implements finance.FinancialEntityRepository using GORM
type GormFinancialEntityRepository struct {
	db *gorm.DB
}

// NewGormFinancialEntityRepository creates a new GormFinancialEntityRepository
func NewGormFinancialEntityRepository(db *gorm.DB) *GormFinancialEntityRepository {
	return &GormFinancialEntityRepository{db: db}
}

func (r *GormFinancialEntityRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// FindByID finds an entity with items and status history
func (r *GormFinancialEntityRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialEntity, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an entity and locks its row for the rest of the
// enclosing transaction
func (r *GormFinancialEntityRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.FinancialEntity, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormFinancialEntityRepository) findOne(db *gorm.DB, id uuid.UUID) (*finance.FinancialEntity, error) {
	var model models.FinancialEntityModel
	if err := r.withChildren(db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds entities by IDs
func (r *GormFinancialEntityRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.FinancialEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.FinancialEntityModel
	if err := r.withChildren(r.db.WithContext(ctx)).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return entitiesToDomain(rows, nil), nil
}

// FindAll lists entities matching filter, newest first. The status filter
// applies to the latest history entry and is evaluated after loading.
func (r *GormFinancialEntityRepository) FindAll(ctx context.Context, filter finance.EntityFilter) ([]finance.FinancialEntity, error) {
	db := r.withChildren(r.db.WithContext(ctx))
	if filter.Kind != nil {
		db = db.Where("kind = ?", *filter.Kind)
	}
	if filter.LocationID != nil {
		db = db.Where("location_id = ?", *filter.LocationID)
	}
	if filter.FromDate != nil {
		db = db.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		db = db.Where("date <= ?", *filter.ToDate)
	}

	var rows []models.FinancialEntityModel
	if err := db.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return entitiesToDomain(rows, filter.Status), nil
}

// Create inserts the entity, its items and its status history
func (r *GormFinancialEntityRepository) Create(ctx context.Context, entity *finance.FinancialEntity) error {
	model := models.FinancialEntityModelFromDomain(entity)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		if len(model.StatusHistory) > 0 {
			return tx.Create(&model.StatusHistory).Error
		}
		return nil
	})
}

// Update saves the entity row, replaces the items and appends new history rows
func (r *GormFinancialEntityRepository) Update(ctx context.Context, entity *finance.FinancialEntity) error {
	model := models.FinancialEntityModelFromDomain(entity)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_id = ?", entity.ID).Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		if len(model.StatusHistory) > 0 {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.StatusHistory).Error
		}
		return nil
	})
}

// Delete removes the entity with its items and status history
func (r *GormFinancialEntityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_id = ?", id).Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_id = ?", id).Delete(&models.StatusEntryModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.FinancialEntityModel{}).Error
	})
}

func entitiesToDomain(rows []models.FinancialEntityModel, status *finance.EntityStatus) []finance.FinancialEntity {
	out := make([]finance.FinancialEntity, 0, len(rows))
	for i := range rows {
		e := rows[i].ToDomain()
		if status != nil && e.Status() != *status {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// GormApproveRequestRepository implements finance.ApproveRequestRepository using GORM
type GormApproveRequestRepository struct {
	db *gorm.DB
}

// NewGormApproveRequestRepository creates a new GormApproveRequestRepository
func NewGormApproveRequestRepository(db *gorm.DB) *GormApproveRequestRepository {
	return &GormApproveRequestRepository{db: db}
}

// FindByEntity lists an entity's requests, oldest first
func (r *GormApproveRequestRepository) FindByEntity(ctx context.Context, entityID uuid.UUID) ([]finance.ApproveRequest, error) {
	var rows []models.ApproveRequestModel
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.ApproveRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// CreateBatch inserts requests
func (r *GormApproveRequestRepository) CreateBatch(ctx context.Context, requests []finance.ApproveRequest) error {
	if len(requests) == 0 {
		return nil
	}
	rows := make([]models.ApproveRequestModel, len(requests))
	for i := range requests {
		rows[i] = *models.ApproveRequestModelFromDomain(&requests[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Save creates or updates a request
func (r *GormApproveRequestRepository) Save(ctx context.Context, request *finance.ApproveRequest) error {
	return r.db.WithContext(ctx).Save(models.ApproveRequestModelFromDomain(request)).Error
}

// DeleteByEntityExcept removes an entity's requests other than keepID
func (r *GormApproveRequestRepository) DeleteByEntityExcept(ctx context.Context, entityID, keepID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("entity_id = ? AND id <> ?", entityID, keepID).
		Delete(&models.ApproveRequestModel{}).Error
}

// CountByEntity counts an entity's requests
func (r *GormApproveRequestRepository) CountByEntity(ctx context.Context, entityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ApproveRequestModel{}).Where("entity_id = ?", entityID).Count(&count).Error
	return count, err
}

// GormAccountingOrganizationRepository implements finance.AccountingOrganizationRepository using GORM
type GormAccountingOrganizationRepository struct {
	db *gorm.DB
}

// NewGormAccountingOrganizationRepository creates a new GormAccountingOrganizationRepository
func NewGormAccountingOrganizationRepository(db *gorm.DB) *GormAccountingOrganizationRepository {
	return &GormAccountingOrganizationRepository{db: db}
}

// FindByID finds an organization by ID
func (r *GormAccountingOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.AccountingOrganization, error) {
	var model models.AccountingOrganizationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByLocation finds the oldest active organization of a location
func (r *GormAccountingOrganizationRepository) FindActiveByLocation(ctx context.Context, locationID uuid.UUID) (*finance.AccountingOrganization, error) {
	var model models.AccountingOrganizationModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ? AND is_active = ?", locationID, true).
		Order("id").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an organization
func (r *GormAccountingOrganizationRepository) Save(ctx context.Context, org *finance.AccountingOrganization) error {
	return r.db.WithContext(ctx).Save(models.AccountingOrganizationModelFromDomain(org)).Error
}

var (
	_ finance.FinancialEntityRepository        = (*GormFinancialEntityRepository)(nil)
	_ finance.ApproveRequestRepository         = (*GormApproveRequestRepository)(nil)
	_ finance.AccountingOrganizationRepository = (*GormAccountingOrganizationRepository)(nil)
)
