//go:generate mockery --name CertificateRepository --output ./mocks --outpkg mocks --case=underscore
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

// CertificateRepository persists issued certificates. The (user, course)
// unique index is what makes issuance exactly-once, so Create must report
// duplicates as model.ErrConflict rather than a generic failure.
type CertificateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, certificate *model.Certificate) error
	FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Certificate, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Certificate, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}

type gormCertificateRepository struct{}

func NewGormCertificateRepository() CertificateRepository {
	return &gormCertificateRepository{}
}

func (r *gormCertificateRepository) Create(ctx context.Context, tx *gorm.DB, certificate *model.Certificate) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(certificate)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating certificate in DB",
			"error", result.Error,
			"user_id", certificate.UserID.String(),
			"course_id", certificate.CourseID.String(),
		)
		return fmt.Errorf("gormCertificateRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormCertificateRepository) FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Certificate, error) {
	var certificate model.Certificate
	result := db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&certificate)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormCertificateRepository.FindByUserAndCourse: %w", result.Error)
	}
	return &certificate, nil
}

func (r *gormCertificateRepository) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Certificate, error) {
	logger := middleware.GetLogger(ctx)
	var certificates []*model.Certificate
	result := db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certificates)
	if result.Error != nil {
		logger.Error("Error listing certificates in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormCertificateRepository.ListByUser: %w", result.Error)
	}
	return certificates, nil
}

func (r *gormCertificateRepository) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.Certificate{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormCertificateRepository.Count: %w", result.Error)
	}
	return count, nil
}
