// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityDateLayout is the storage format of UserProgress.LastActivityDate.
// The column holds a UTC calendar day, not a timestamp; keeping it as a
// plain date string avoids timezone drift in day-delta math.
const ActivityDateLayout = "2006-01-02"

// UserProgress is the per-user gamification row. Level is a pure function
// of TotalXP and is stored only as a cache of that computation.
type UserProgress struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalXP          int       `gorm:"not null;default:0" json:"total_xp"`
	Level            int       `gorm:"not null;default:1" json:"level"`
	CurrentStreak    int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak    int       `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityDate *string   `gorm:"type:varchar(10)" json:"last_activity_date,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// UTCDay formats t as a UTC calendar day string.
func UTCDay(t time.Time) string {
	return t.UTC().Format(ActivityDateLayout)
}

// ProgressResponse adds the derived next-level threshold to the stored row.
type ProgressResponse struct {
	UserProgress
	XPForNextLevel int `json:"xp_for_next_level"`
}

// CheckInResponse is the outcome of the daily check-in operation.
type CheckInResponse struct {
	CheckedIn bool `json:"checked_in"`
	XPAwarded int  `json:"xp_awarded"`
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username,omitempty"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	TotalXP       int       `json:"total_xp"`
	Level         int       `json:"level"`
	CurrentStreak int       `json:"current_streak"`
}

// LandingStats are the public aggregate counters for the landing page.
type LandingStats struct {
	ActiveStudents     int64 `json:"active_students"`
	TotalCourses       int64 `json:"total_courses"`
	CertificatesMinted int64 `json:"certificates_minted"`
	TotalXPEarned      int64 `json:"total_xp_earned"`
}
