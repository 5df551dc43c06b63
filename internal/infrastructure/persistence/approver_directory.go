package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormApproverDirectory reads approval rights from the local approver
// projection tables
type GormApproverDirectory struct {
	db *gorm.DB
}

// NewGormApproverDirectory creates a new GormApproverDirectory
func NewGormApproverDirectory(db *gorm.DB) *GormApproverDirectory {
	return &GormApproverDirectory{db: db}
}

// FindApprover returns a user's approval rights, or nil if the user has no profile
func (d *GormApproverDirectory) FindApprover(ctx context.Context, userID uuid.UUID) (*finance.Approver, error) {
	var model models.ApproverProfileModel
	if err := d.db.WithContext(ctx).Preload("Locations").Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces a user's approval rights
func (d *GormApproverDirectory) Save(ctx context.Context, approver *finance.Approver) error {
	model := models.ApproverProfileModelFromDomain(approver)
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Locations").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", approver.UserID).Delete(&models.ApproverLocationModel{}).Error; err != nil {
			return err
		}
		if len(model.Locations) == 0 {
			return nil
		}
		return tx.Create(&model.Locations).Error
	})
}
