// internal/model/achievement.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Achievement codes awarded by the gamification engine.
const (
	AchievementFirstLesson    = "first_lesson"
	AchievementCourseComplete = "course_complete"
	AchievementXP100          = "xp_100"
	AchievementXP500          = "xp_500"
	AchievementXP1000         = "xp_1000"
	AchievementStreak3        = "streak_3"
	AchievementStreak7        = "streak_7"
	AchievementStreak30       = "streak_30"
)

// Achievement is the unlockable catalog entry.
type Achievement struct {
	AchievementID uuid.UUID `gorm:"type:uuid;primaryKey" json:"achievement_id"`
	Code          string    `gorm:"uniqueIndex;not null" json:"code"`
	Title         string    `gorm:"not null" json:"title"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement is the per-user unlock record. The (user, achievement)
// unique index makes a duplicate award a silent no-op.
type UserAchievement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_user_achievement,unique" json:"user_id"`
	AchievementID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_achievement,unique" json:"achievement_id"`
	EarnedAt      time.Time `gorm:"not null" json:"earned_at"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID;references:AchievementID" json:"achievement,omitempty"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

// EarnedAchievementResponse is the catalog entry plus when it was earned.
type EarnedAchievementResponse struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}
