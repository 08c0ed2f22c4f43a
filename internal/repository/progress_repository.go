//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
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

// ProgressRepository owns the per-user gamification rows.
type ProgressRepository interface {
	Find(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.UserProgress, error)
	Create(ctx context.Context, tx *gorm.DB, progress *model.UserProgress) error
	Update(ctx context.Context, tx *gorm.DB, progress *model.UserProgress) error
	ListTop(ctx context.Context, db *gorm.DB, limit int) ([]*model.UserProgress, error)
	CountHigherXP(ctx context.Context, db *gorm.DB, totalXP int) (int64, error)
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)
	SumTotalXP(ctx context.Context, db *gorm.DB) (int64, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) Find(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.UserProgress, error) {
	var progress model.UserProgress
	result := db.WithContext(ctx).Where("user_id = ?", userID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProgressRepository.Find: %w", result.Error)
	}
	return &progress, nil
}

func (r *gormProgressRepository) Create(ctx context.Context, tx *gorm.DB, progress *model.UserProgress) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating user progress in DB", "error", result.Error, "user_id", progress.UserID.String())
		return fmt.Errorf("gormProgressRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) Update(ctx context.Context, tx *gorm.DB, progress *model.UserProgress) error {
	logger := middleware.GetLogger(ctx)
	// Full-row save keeps LastActivityDate writable back to NULL.
	result := tx.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ?", progress.UserID).
		Updates(map[string]interface{}{
			"total_xp":           progress.TotalXP,
			"level":              progress.Level,
			"current_streak":     progress.CurrentStreak,
			"longest_streak":     progress.LongestStreak,
			"last_activity_date": progress.LastActivityDate,
		})
	if result.Error != nil {
		logger.Error("Error updating user progress in DB", "error", result.Error, "user_id", progress.UserID.String())
		return fmt.Errorf("gormProgressRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormProgressRepository) ListTop(ctx context.Context, db *gorm.DB, limit int) ([]*model.UserProgress, error) {
	logger := middleware.GetLogger(ctx)
	var rows []*model.UserProgress
	result := db.WithContext(ctx).
		Order("total_xp DESC").
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		logger.Error("Error listing leaderboard rows in DB", "error", result.Error)
		return nil, fmt.Errorf("gormProgressRepository.ListTop: %w", result.Error)
	}
	return rows, nil
}

func (r *gormProgressRepository) CountHigherXP(ctx context.Context, db *gorm.DB, totalXP int) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.UserProgress{}).Where("total_xp > ?", totalXP).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormProgressRepository.CountHigherXP: %w", result.Error)
	}
	return count, nil
}

func (r *gormProgressRepository) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.UserProgress{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormProgressRepository.CountUsers: %w", result.Error)
	}
	return count, nil
}

func (r *gormProgressRepository) SumTotalXP(ctx context.Context, db *gorm.DB) (int64, error) {
	var sum int64
	result := db.WithContext(ctx).Model(&model.UserProgress{}).
		Select("COALESCE(SUM(total_xp), 0)").
		Scan(&sum)
	if result.Error != nil {
		return 0, fmt.Errorf("gormProgressRepository.SumTotalXP: %w", result.Error)
	}
	return sum, nil
}
