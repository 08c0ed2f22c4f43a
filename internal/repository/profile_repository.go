//go:generate mockery --name ProfileRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository reads account rows and links wallets.
type ProfileRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.Profile, error)
	UpdateWallet(ctx context.Context, tx *gorm.DB, userID uuid.UUID, walletAddress string) error
	CountProfiles(ctx context.Context, db *gorm.DB) (int64, error)
}

type gormProfileRepository struct{}

func NewGormProfileRepository() ProfileRepository {
	return &gormProfileRepository{}
}

func (r *gormProfileRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	result := db.WithContext(ctx).Where("user_id = ?", userID).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProfileRepository.FindByID: %w", result.Error)
	}
	return &profile, nil
}

func (r *gormProfileRepository) UpdateWallet(ctx context.Context, tx *gorm.DB, userID uuid.UUID, walletAddress string) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("wallet_address", walletAddress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error updating wallet address in DB", "error", result.Error, "user_id", userID.String())
		return fmt.Errorf("gormProfileRepository.UpdateWallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormProfileRepository) CountProfiles(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.Profile{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormProfileRepository.CountProfiles: %w", result.Error)
	}
	return count, nil
}
