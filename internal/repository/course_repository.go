//go:generate mockery --name CourseRepository --output ./mocks --outpkg mocks --case=underscore
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

// CourseRepository resolves courses and lessons. References arrive as
// either a UUID or a slug, so lookups accept both.
type CourseRepository interface {
	FindCourseByRef(ctx context.Context, db *gorm.DB, ref string) (*model.Course, error)
	FindLessonByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error)
	FindLessonBySlug(ctx context.Context, db *gorm.DB, courseID uuid.UUID, slug string) (*model.Lesson, error)
	ListLessons(ctx context.Context, db *gorm.DB, courseID uuid.UUID, publishedOnly bool) ([]*model.Lesson, error)
	CountPublishedCourses(ctx context.Context, db *gorm.DB) (int64, error)
}

type gormCourseRepository struct{}

func NewGormCourseRepository() CourseRepository {
	return &gormCourseRepository{}
}

func (r *gormCourseRepository) FindCourseByRef(ctx context.Context, db *gorm.DB, ref string) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)
	var course model.Course

	query := db.WithContext(ctx)
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("course_id = ?", id)
	} else {
		query = query.Where("slug = ?", ref)
	}

	result := query.First(&course)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding course by ref in DB", "error", result.Error, "ref", ref)
		return nil, fmt.Errorf("gormCourseRepository.FindCourseByRef: %w", result.Error)
	}
	return &course, nil
}

func (r *gormCourseRepository) FindLessonByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)
	var lesson model.Lesson
	result := db.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&lesson)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding lesson by ID in DB", "error", result.Error, "lesson_id", lessonID.String())
		return nil, fmt.Errorf("gormCourseRepository.FindLessonByID: %w", result.Error)
	}
	return &lesson, nil
}

func (r *gormCourseRepository) FindLessonBySlug(ctx context.Context, db *gorm.DB, courseID uuid.UUID, slug string) (*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)
	var lesson model.Lesson
	result := db.WithContext(ctx).Where("course_id = ? AND slug = ?", courseID, slug).First(&lesson)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding lesson by slug in DB",
			"error", result.Error,
			"course_id", courseID.String(),
			"slug", slug,
		)
		return nil, fmt.Errorf("gormCourseRepository.FindLessonBySlug: %w", result.Error)
	}
	return &lesson, nil
}

func (r *gormCourseRepository) ListLessons(ctx context.Context, db *gorm.DB, courseID uuid.UUID, publishedOnly bool) ([]*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)
	var lessons []*model.Lesson

	query := db.WithContext(ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	result := query.Order("order_index ASC").Find(&lessons)
	if result.Error != nil {
		logger.Error("Error listing lessons in DB", "error", result.Error, "course_id", courseID.String())
		return nil, fmt.Errorf("gormCourseRepository.ListLessons: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormCourseRepository) CountPublishedCourses(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.Course{}).Where("is_published = ?", true).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormCourseRepository.CountPublishedCourses: %w", result.Error)
	}
	return count, nil
}
