// cmd/seed/main.go
//
// Migrates the schema and loads the achievement catalog plus a demo course.
// Safe to run repeatedly; existing rows are left alone.
package main

import (
	"log/slog"
	"os"

	"superteam_academy/internal/config"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
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
		slog.Error("Error migrating schema", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Schema migrated")

	if err := seedAchievements(db); err != nil {
		slog.Error("Error seeding achievements", slog.Any("error", err))
		os.Exit(1)
	}
	if err := seedDemoCourse(db); err != nil {
		slog.Error("Error seeding demo course", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Seed complete")
}

func seedAchievements(db *gorm.DB) error {
	catalog := []model.Achievement{
		{Code: model.AchievementFirstLesson, Title: "First Steps", Description: "Complete your first lesson."},
		{Code: model.AchievementCourseComplete, Title: "Course Graduate", Description: "Complete every lesson in a course."},
		{Code: model.AchievementXP100, Title: "Century", Description: "Earn 100 XP."},
		{Code: model.AchievementXP500, Title: "High Achiever", Description: "Earn 500 XP."},
		{Code: model.AchievementXP1000, Title: "Scholar", Description: "Earn 1000 XP."},
		{Code: model.AchievementStreak3, Title: "Warming Up", Description: "Learn three days in a row."},
		{Code: model.AchievementStreak7, Title: "Week Strong", Description: "Learn seven days in a row."},
		{Code: model.AchievementStreak30, Title: "Unstoppable", Description: "Learn thirty days in a row."},
	}

	for i := range catalog {
		catalog[i].AchievementID = uuid.New()
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&catalog).Error
}

func seedDemoCourse(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Course{}).Where("slug = ?", "solana-fundamentals").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Info("Demo course already present, skipping")
		return nil
	}

	course := model.Course{
		CourseID:    uuid.New(),
		Slug:        "solana-fundamentals",
		Title:       "Solana Fundamentals",
		Description: "Accounts, programs and transactions from first principles.",
		IsPublished: true,
	}
	if err := db.Create(&course).Error; err != nil {
		return err
	}

	lessons := []model.Lesson{
		{Slug: "what-is-solana", Title: "What is Solana?", OrderIndex: 0, XPReward: 50, IsPublished: true},
		{Slug: "accounts-model", Title: "The Account Model", OrderIndex: 1, XPReward: 50, IsPublished: true},
		{Slug: "transactions", Title: "Transactions and Instructions", OrderIndex: 2, XPReward: 75, IsPublished: true},
		{Slug: "spl-tokens", Title: "SPL Tokens", OrderIndex: 3, XPReward: 75, IsPublished: true},
		{Slug: "building-a-dapp", Title: "Building a dApp", OrderIndex: 4, XPReward: 100, IsPublished: true},
	}
	for i := range lessons {
		lessons[i].LessonID = uuid.New()
		lessons[i].CourseID = course.CourseID
	}
	if err := db.Create(&lessons).Error; err != nil {
		return err
	}

	slog.Info("Demo course seeded", slog.String("course_id", course.CourseID.String()), slog.Int("lessons", len(lessons)))
	return nil
}
