// internal/service/enrollment_service_test.go
package service

import (
	"context"
	"testing"

	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEnrollmentService(db *gorm.DB) EnrollmentService {
	return NewEnrollmentService(
		db,
		repository.NewGormCourseRepository(),
		repository.NewGormEnrollmentRepository(),
	)
}

func TestEnrollmentService_Enroll(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newEnrollmentService(db)

	userID := seedProfile(t, db, nil)
	course, _ := seedCourse(t, db, 2)

	enrollment, err := svc.Enroll(ctx, userID, course.Slug)
	require.NoError(t, err)
	assert.Equal(t, course.CourseID, enrollment.CourseID)
	assert.Equal(t, 0, enrollment.ProgressPercentage)
	assert.Equal(t, course.Slug, enrollment.CourseSlug)

	// Enrolling again returns the same row.
	again, err := svc.Enroll(ctx, userID, course.CourseID.String())
	require.NoError(t, err)
	assert.Equal(t, enrollment.EnrollmentID, again.EnrollmentID)

	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollmentService_Enroll_UnknownCourse(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newEnrollmentService(db)

	userID := seedProfile(t, db, nil)

	_, err := svc.Enroll(ctx, userID, "no-such-course")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEnrollmentService_Enroll_UnpublishedCourse(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newEnrollmentService(db)

	userID := seedProfile(t, db, nil)
	course, _ := seedCourse(t, db, 1)
	require.NoError(t, db.Model(&model.Course{}).
		Where("course_id = ?", course.CourseID).
		Update("is_published", false).Error)

	_, err := svc.Enroll(ctx, userID, course.Slug)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestEnrollmentService_ListEnrollments(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newEnrollmentService(db)

	userID := seedProfile(t, db, nil)
	courseA, _ := seedCourse(t, db, 1)
	courseB, _ := seedCourse(t, db, 1)

	_, err := svc.Enroll(ctx, userID, courseA.Slug)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, userID, courseB.Slug)
	require.NoError(t, err)

	enrollments, err := svc.ListEnrollments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 2)
}
