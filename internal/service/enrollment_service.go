// internal/service/enrollment_service.go
package service

import (
	"context"
	"errors"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, userID uuid.UUID, courseRef string) (*model.EnrollmentResponse, error)
	ListEnrollments(ctx context.Context, userID uuid.UUID) ([]*model.EnrollmentResponse, error)
}

type enrollmentService struct {
	db             *gorm.DB
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
}

func NewEnrollmentService(db *gorm.DB, courseRepo repository.CourseRepository, enrollmentRepo repository.EnrollmentRepository) EnrollmentService {
	return &enrollmentService{
		db:             db,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// Enroll creates the (user, course) membership. Enrolling twice returns the
// existing row unchanged.
func (s *enrollmentService) Enroll(ctx context.Context, userID uuid.UUID, courseRef string) (*model.EnrollmentResponse, error) {
	logger := middleware.GetLogger(ctx)
	var enrollment *model.Enrollment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.FindCourseByRef(ctx, tx, courseRef)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("COURSE_NOT_FOUND", "Course not found.", "course_ref", model.ErrNotFound)
			}
			return err
		}
		if !course.IsPublished {
			return model.NewAppError("COURSE_NOT_PUBLISHED", "Course is not open for enrollment.", "course_ref", model.ErrForbidden)
		}

		existing, err := s.enrollmentRepo.FindByUserAndCourse(ctx, tx, userID, course.CourseID)
		if err == nil {
			existing.Course = course
			enrollment = existing
			return nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		enrollment = &model.Enrollment{
			EnrollmentID: uuid.New(),
			UserID:       userID,
			CourseID:     course.CourseID,
			Course:       course,
		}
		if err := s.enrollmentRepo.Create(ctx, tx, enrollment); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// Lost an enrollment race; the winner's row is ours too.
				enrollment, err = s.enrollmentRepo.FindByUserAndCourse(ctx, tx, userID, course.CourseID)
				if err != nil {
					return err
				}
				enrollment.Course = course
				return nil
			}
			return err
		}

		logger.Info("User enrolled in course", "user_id", userID.String(), "course_id", course.CourseID.String())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return enrollment.ToResponse(), nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]*model.EnrollmentResponse, error) {
	enrollments, err := s.enrollmentRepo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*model.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, enrollment.ToResponse())
	}
	return responses, nil
}
