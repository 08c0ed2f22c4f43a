// internal/service/gamification_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGamificationService(db *gorm.DB) GamificationService {
	return NewGamificationService(
		db,
		repository.NewGormProgressRepository(),
		repository.NewGormAchievementRepository(),
		repository.NewGormProfileRepository(),
		repository.NewGormCourseRepository(),
		repository.NewGormCertificateRepository(),
	)
}

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		name    string
		totalXP int
		want    int
	}{
		{"zero XP is level 1", 0, 1},
		{"negative XP is level 1", -50, 1},
		{"just under the first threshold", 99, 1},
		{"100 XP is still level 1", 100, 1},
		{"400 XP reaches level 2", 400, 2},
		{"899 XP stays level 2", 899, 2},
		{"900 XP reaches level 3", 900, 3},
		{"10000 XP reaches level 10", 10000, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateLevel(tt.totalXP))
		})
	}
}

func TestXPForLevel(t *testing.T) {
	assert.Equal(t, 100, XPForLevel(1))
	assert.Equal(t, 400, XPForLevel(2))
	assert.Equal(t, 900, XPForLevel(3))
}

func TestGamificationService_ApplyActivity_Streaks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	day := func(t time.Time) *string {
		s := model.UTCDay(t)
		return &s
	}

	tests := []struct {
		name              string
		lastActivityDate  *string
		currentStreak     int
		longestStreak     int
		wantCurrentStreak int
		wantLongestStreak int
	}{
		{
			name:              "first activity starts a streak",
			lastActivityDate:  nil,
			wantCurrentStreak: 1,
			wantLongestStreak: 1,
		},
		{
			name:              "same day keeps the streak",
			lastActivityDate:  day(now),
			currentStreak:     4,
			longestStreak:     4,
			wantCurrentStreak: 4,
			wantLongestStreak: 4,
		},
		{
			name:              "consecutive day extends the streak",
			lastActivityDate:  day(now.AddDate(0, 0, -1)),
			currentStreak:     4,
			longestStreak:     4,
			wantCurrentStreak: 5,
			wantLongestStreak: 5,
		},
		{
			name:              "a gap resets the streak",
			lastActivityDate:  day(now.AddDate(0, 0, -3)),
			currentStreak:     9,
			longestStreak:     9,
			wantCurrentStreak: 1,
			wantLongestStreak: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			seedAchievementCatalog(t, db)
			svc := newGamificationService(db)
			userID := uuid.New()

			if tt.lastActivityDate != nil {
				row := model.UserProgress{
					UserID:           userID,
					TotalXP:          10,
					Level:            1,
					CurrentStreak:    tt.currentStreak,
					LongestStreak:    tt.longestStreak,
					LastActivityDate: tt.lastActivityDate,
				}
				require.NoError(t, db.Create(&row).Error)
			}

			progress, err := svc.ApplyActivity(ctx, db, userID, 10, now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCurrentStreak, progress.CurrentStreak)
			assert.Equal(t, tt.wantLongestStreak, progress.LongestStreak)
			require.NotNil(t, progress.LastActivityDate)
			assert.Equal(t, model.UTCDay(now), *progress.LastActivityDate)
		})
	}
}

func TestGamificationService_ApplyActivity_XPAndLevel(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedAchievementCatalog(t, db)
	svc := newGamificationService(db)
	userID := uuid.New()
	now := time.Now()

	progress, err := svc.ApplyActivity(ctx, db, userID, 450, now)
	require.NoError(t, err)
	assert.Equal(t, 450, progress.TotalXP)
	assert.Equal(t, 2, progress.Level)

	// XP milestones for 100 is unlocked, 500 is not yet.
	var unlocks []model.UserAchievement
	require.NoError(t, db.Preload("Achievement").Where("user_id = ?", userID).Find(&unlocks).Error)
	codes := make(map[string]bool)
	for _, ua := range unlocks {
		codes[ua.Achievement.Code] = true
	}
	assert.True(t, codes[model.AchievementXP100])
	assert.False(t, codes[model.AchievementXP500])

	progress, err = svc.ApplyActivity(ctx, db, userID, 100, now)
	require.NoError(t, err)
	assert.Equal(t, 550, progress.TotalXP)

	unlocks = nil
	require.NoError(t, db.Preload("Achievement").Where("user_id = ?", userID).Find(&unlocks).Error)
	codes = make(map[string]bool)
	for _, ua := range unlocks {
		codes[ua.Achievement.Code] = true
	}
	assert.True(t, codes[model.AchievementXP500])
}

func TestGamificationService_AwardAchievement_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedAchievementCatalog(t, db)
	svc := newGamificationService(db)
	userID := uuid.New()
	now := time.Now()

	require.NoError(t, svc.AwardAchievement(ctx, db, userID, model.AchievementFirstLesson, now))
	require.NoError(t, svc.AwardAchievement(ctx, db, userID, model.AchievementFirstLesson, now))

	var count int64
	require.NoError(t, db.Model(&model.UserAchievement{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGamificationService_AwardAchievement_UnknownCode(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newGamificationService(db)

	// An empty catalog must not fail the caller.
	err := svc.AwardAchievement(ctx, db, uuid.New(), "no_such_code", time.Now())
	assert.NoError(t, err)
}

func TestGamificationService_DailyCheckIn(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedAchievementCatalog(t, db)
	svc := newGamificationService(db)
	userID := uuid.New()

	first, err := svc.DailyCheckIn(ctx, userID)
	require.NoError(t, err)
	assert.True(t, first.CheckedIn)
	assert.Equal(t, 10, first.XPAwarded)

	second, err := svc.DailyCheckIn(ctx, userID)
	require.NoError(t, err)
	assert.False(t, second.CheckedIn)
	assert.Equal(t, 0, second.XPAwarded)

	progress, err := svc.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, progress.TotalXP)
	assert.Equal(t, 1, progress.CurrentStreak)
}

func TestGamificationService_GetProgress_FreshUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newGamificationService(db)

	progress, err := svc.GetProgress(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, progress.TotalXP)
	assert.Equal(t, 1, progress.Level)
	assert.Equal(t, 400, progress.XPForNextLevel)
}

func TestGamificationService_LeaderboardAndRank(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newGamificationService(db)

	users := []struct {
		xp int
	}{{300}, {100}, {200}}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		id := seedProfile(t, db, nil)
		ids = append(ids, id)
		row := model.UserProgress{UserID: id, TotalXP: u.xp, Level: CalculateLevel(u.xp)}
		require.NoError(t, db.Create(&row).Error)
	}

	entries, err := svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 300, entries[0].TotalXP)
	assert.Equal(t, 200, entries[1].TotalXP)
	assert.Equal(t, 100, entries[2].TotalXP)
	assert.Equal(t, "learner", entries[0].Username)

	rank, err := svc.Rank(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	rank, err = svc.Rank(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, rank)
}
