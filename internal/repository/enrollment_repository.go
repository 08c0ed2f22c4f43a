//go:generate mockery --name EnrollmentRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentRepository owns enrollments and their lesson completions.
// Uniqueness conflicts surface as model.ErrConflict so services can treat
// them as control flow (reconciliation, idempotent re-read).
type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error
	FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Enrollment, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Enrollment, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, percentage int, completedAt *time.Time) error

	CreateCompletion(ctx context.Context, tx *gorm.DB, completion *model.LessonCompletion) error
	FindCompletionByUserAndLesson(ctx context.Context, db *gorm.DB, userID, lessonID uuid.UUID) (*model.LessonCompletion, error)
	ListCompletionsByEnrollment(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID) ([]*model.LessonCompletion, error)
	RelinkCompletion(ctx context.Context, tx *gorm.DB, completionID, enrollmentID uuid.UUID, xpEarned int) error
}

type gormEnrollmentRepository struct{}

func NewGormEnrollmentRepository() EnrollmentRepository {
	return &gormEnrollmentRepository{}
}

func (r *gormEnrollmentRepository) Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating enrollment in DB",
			"error", result.Error,
			"user_id", enrollment.UserID.String(),
			"course_id", enrollment.CourseID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormEnrollmentRepository) FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	result := db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormEnrollmentRepository.FindByUserAndCourse: %w", result.Error)
	}
	return &enrollment, nil
}

func (r *gormEnrollmentRepository) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)
	var enrollments []*model.Enrollment
	result := db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments)
	if result.Error != nil {
		logger.Error("Error listing enrollments in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormEnrollmentRepository.ListByUser: %w", result.Error)
	}
	return enrollments, nil
}

func (r *gormEnrollmentRepository) UpdateProgress(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, percentage int, completedAt *time.Time) error {
	logger := middleware.GetLogger(ctx)
	// completedAt nil writes NULL, clearing the stamp when progress drops
	// below 100 again.
	result := tx.WithContext(ctx).Model(&model.Enrollment{}).
		Where("enrollment_id = ?", enrollmentID).
		Updates(map[string]interface{}{
			"progress_percentage": percentage,
			"completed_at":        completedAt,
		})
	if result.Error != nil {
		logger.Error("Error updating enrollment progress in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.UpdateProgress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormEnrollmentRepository) CreateCompletion(ctx context.Context, tx *gorm.DB, completion *model.LessonCompletion) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(completion)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating lesson completion in DB",
			"error", result.Error,
			"user_id", completion.UserID.String(),
			"lesson_id", completion.LessonID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.CreateCompletion: %w", result.Error)
	}
	return nil
}

func (r *gormEnrollmentRepository) FindCompletionByUserAndLesson(ctx context.Context, db *gorm.DB, userID, lessonID uuid.UUID) (*model.LessonCompletion, error) {
	var completion model.LessonCompletion
	result := db.WithContext(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&completion)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormEnrollmentRepository.FindCompletionByUserAndLesson: %w", result.Error)
	}
	return &completion, nil
}

func (r *gormEnrollmentRepository) ListCompletionsByEnrollment(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID) ([]*model.LessonCompletion, error) {
	logger := middleware.GetLogger(ctx)
	var completions []*model.LessonCompletion
	// Lesson is preloaded for the slug side of dual-identity matching.
	result := db.WithContext(ctx).
		Preload("Lesson").
		Where("enrollment_id = ?", enrollmentID).
		Find(&completions)
	if result.Error != nil {
		logger.Error("Error listing completions in DB", "error", result.Error, "enrollment_id", enrollmentID.String())
		return nil, fmt.Errorf("gormEnrollmentRepository.ListCompletionsByEnrollment: %w", result.Error)
	}
	return completions, nil
}

func (r *gormEnrollmentRepository) RelinkCompletion(ctx context.Context, tx *gorm.DB, completionID, enrollmentID uuid.UUID, xpEarned int) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.LessonCompletion{}).
		Where("completion_id = ?", completionID).
		Updates(map[string]interface{}{
			"enrollment_id": enrollmentID,
			"xp_earned":     xpEarned,
		})
	if result.Error != nil {
		logger.Error("Error relinking lesson completion in DB",
			"error", result.Error,
			"completion_id", completionID.String(),
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.RelinkCompletion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
