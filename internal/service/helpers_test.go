// internal/service/helpers_test.go
package service

import (
	"fmt"
	"testing"

	"superteam_academy/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory database with the full schema.
// TranslateError is on, matching production, so uniqueness violations
// surface as gorm.ErrDuplicatedKey.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database for testing: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Profile{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonCompletion{},
		&model.UserProgress{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.Certificate{},
	); err != nil {
		t.Fatalf("failed to migrate database for testing: %v", err)
	}

	return db
}

func seedAchievementCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	codes := []string{
		model.AchievementFirstLesson,
		model.AchievementCourseComplete,
		model.AchievementXP100,
		model.AchievementXP500,
		model.AchievementXP1000,
		model.AchievementStreak3,
		model.AchievementStreak7,
		model.AchievementStreak30,
	}
	for _, code := range codes {
		achievement := model.Achievement{
			AchievementID: uuid.New(),
			Code:          code,
			Title:         code,
		}
		if err := db.Create(&achievement).Error; err != nil {
			t.Fatalf("failed to seed achievement %s: %v", code, err)
		}
	}
}

func seedProfile(t *testing.T, db *gorm.DB, wallet *string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	profile := model.Profile{
		UserID:        userID,
		Username:      "learner",
		Email:         fmt.Sprintf("%s@example.com", userID),
		WalletAddress: wallet,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
	return userID
}

// seedCourse creates a published course with n published lessons ordered
// 0..n-1, each worth 50 XP.
func seedCourse(t *testing.T, db *gorm.DB, n int) (*model.Course, []model.Lesson) {
	t.Helper()

	course := model.Course{
		CourseID:    uuid.New(),
		Slug:        fmt.Sprintf("course-%s", uuid.NewString()[:8]),
		Title:       "Test Course",
		IsPublished: true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}

	lessons := make([]model.Lesson, 0, n)
	for i := 0; i < n; i++ {
		lesson := model.Lesson{
			LessonID:    uuid.New(),
			CourseID:    course.CourseID,
			Slug:        fmt.Sprintf("lesson-%d", i),
			Title:       fmt.Sprintf("Lesson %d", i),
			OrderIndex:  i,
			XPReward:    50,
			IsPublished: true,
		}
		if err := db.Create(&lesson).Error; err != nil {
			t.Fatalf("failed to seed lesson %d: %v", i, err)
		}
		lessons = append(lessons, lesson)
	}
	return &course, lessons
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID, courseID uuid.UUID) *model.Enrollment {
	t.Helper()

	enrollment := model.Enrollment{
		EnrollmentID: uuid.New(),
		UserID:       userID,
		CourseID:     courseID,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("failed to seed enrollment: %v", err)
	}
	return &enrollment
}
