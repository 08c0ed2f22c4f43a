//go:generate mockery --name AchievementRepository --output ./mocks --outpkg mocks --case=underscore
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

// AchievementRepository reads the catalog and records unlocks.
type AchievementRepository interface {
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*model.Achievement, error)
	CreateUserAchievement(ctx context.Context, tx *gorm.DB, ua *model.UserAchievement) error
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.UserAchievement, error)
}

type gormAchievementRepository struct{}

func NewGormAchievementRepository() AchievementRepository {
	return &gormAchievementRepository{}
}

func (r *gormAchievementRepository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*model.Achievement, error) {
	var achievement model.Achievement
	result := db.WithContext(ctx).Where("code = ?", code).First(&achievement)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormAchievementRepository.FindByCode: %w", result.Error)
	}
	return &achievement, nil
}

func (r *gormAchievementRepository) CreateUserAchievement(ctx context.Context, tx *gorm.DB, ua *model.UserAchievement) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(ua)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating user achievement in DB",
			"error", result.Error,
			"user_id", ua.UserID.String(),
			"achievement_id", ua.AchievementID.String(),
		)
		return fmt.Errorf("gormAchievementRepository.CreateUserAchievement: %w", result.Error)
	}
	return nil
}

func (r *gormAchievementRepository) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.UserAchievement, error) {
	logger := middleware.GetLogger(ctx)
	var unlocks []*model.UserAchievement
	result := db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&unlocks)
	if result.Error != nil {
		logger.Error("Error listing user achievements in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormAchievementRepository.ListByUser: %w", result.Error)
	}
	return unlocks, nil
}
