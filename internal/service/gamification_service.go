// internal/service/gamification_service.go
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"superteam_academy/internal/config"
	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalculateLevel derives the level from lifetime XP. Levels follow a square
// root curve over hundreds of XP and never drop below 1.
func CalculateLevel(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	level := int(math.Floor(math.Sqrt(float64(totalXP) / 100)))
	if level < 1 {
		level = 1
	}
	return level
}

// XPForLevel returns the total XP at which the given level begins.
func XPForLevel(level int) int {
	return level * level * 100
}

type GamificationService interface {
	// ApplyActivity adds XP and advances the daily streak inside the
	// caller's transaction, then awards any milestones crossed.
	ApplyActivity(ctx context.Context, tx *gorm.DB, userID uuid.UUID, xpDelta int, now time.Time) (*model.UserProgress, error)
	AwardAchievement(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, now time.Time) error
	DailyCheckIn(ctx context.Context, userID uuid.UUID) (*model.CheckInResponse, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*model.ProgressResponse, error)
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]*model.EarnedAchievementResponse, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	Rank(ctx context.Context, userID uuid.UUID) (int, error)
	Stats(ctx context.Context) (*model.LandingStats, error)
}

type gamificationService struct {
	db              *gorm.DB
	progressRepo    repository.ProgressRepository
	achievementRepo repository.AchievementRepository
	profileRepo     repository.ProfileRepository
	courseRepo      repository.CourseRepository
	certificateRepo repository.CertificateRepository
}

func NewGamificationService(
	db *gorm.DB,
	progressRepo repository.ProgressRepository,
	achievementRepo repository.AchievementRepository,
	profileRepo repository.ProfileRepository,
	courseRepo repository.CourseRepository,
	certificateRepo repository.CertificateRepository,
) GamificationService {
	return &gamificationService{
		db:              db,
		progressRepo:    progressRepo,
		achievementRepo: achievementRepo,
		profileRepo:     profileRepo,
		courseRepo:      courseRepo,
		certificateRepo: certificateRepo,
	}
}

// findOrCreateProgress loads the user's row inside tx, creating the default
// row on first activity.
func (s *gamificationService) findOrCreateProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*model.UserProgress, error) {
	progress, err := s.progressRepo.Find(ctx, tx, userID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	progress = &model.UserProgress{
		UserID:  userID,
		TotalXP: 0,
		Level:   1,
	}
	if err := s.progressRepo.Create(ctx, tx, progress); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return s.progressRepo.Find(ctx, tx, userID)
		}
		return nil, err
	}
	return progress, nil
}

func (s *gamificationService) ApplyActivity(ctx context.Context, tx *gorm.DB, userID uuid.UUID, xpDelta int, now time.Time) (*model.UserProgress, error) {
	logger := middleware.GetLogger(ctx)

	progress, err := s.findOrCreateProgress(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	progress.TotalXP += xpDelta
	if progress.TotalXP < 0 {
		progress.TotalXP = 0
	}
	progress.Level = CalculateLevel(progress.TotalXP)

	today := model.UTCDay(now)
	switch {
	case progress.LastActivityDate == nil:
		progress.CurrentStreak = 1
	case *progress.LastActivityDate == today:
		// Same UTC day, streak unchanged.
	default:
		last, err := time.Parse(model.ActivityDateLayout, *progress.LastActivityDate)
		if err != nil {
			logger.Warn("Unparseable last activity date, resetting streak",
				"user_id", userID.String(),
				"last_activity_date", *progress.LastActivityDate,
			)
			progress.CurrentStreak = 1
		} else {
			todayDate, _ := time.Parse(model.ActivityDateLayout, today)
			dayDelta := int(todayDate.Sub(last).Hours() / 24)
			if dayDelta == 1 {
				progress.CurrentStreak++
			} else {
				progress.CurrentStreak = 1
			}
		}
	}
	if progress.CurrentStreak > progress.LongestStreak {
		progress.LongestStreak = progress.CurrentStreak
	}
	progress.LastActivityDate = &today

	if err := s.progressRepo.Update(ctx, tx, progress); err != nil {
		return nil, err
	}

	if err := s.awardMilestones(ctx, tx, userID, progress, now); err != nil {
		return nil, err
	}

	return progress, nil
}

// awardMilestones unlocks XP and streak achievements the updated row now
// qualifies for. Duplicate awards are silent no-ops.
func (s *gamificationService) awardMilestones(ctx context.Context, tx *gorm.DB, userID uuid.UUID, progress *model.UserProgress, now time.Time) error {
	xpMilestones := []struct {
		threshold int
		code      string
	}{
		{100, model.AchievementXP100},
		{500, model.AchievementXP500},
		{1000, model.AchievementXP1000},
	}
	for _, m := range xpMilestones {
		if progress.TotalXP >= m.threshold {
			if err := s.AwardAchievement(ctx, tx, userID, m.code, now); err != nil {
				return err
			}
		}
	}

	streakMilestones := []struct {
		threshold int
		code      string
	}{
		{3, model.AchievementStreak3},
		{7, model.AchievementStreak7},
		{30, model.AchievementStreak30},
	}
	for _, m := range streakMilestones {
		if progress.CurrentStreak >= m.threshold {
			if err := s.AwardAchievement(ctx, tx, userID, m.code, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *gamificationService) AwardAchievement(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, now time.Time) error {
	logger := middleware.GetLogger(ctx)

	achievement, err := s.achievementRepo.FindByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// A missing catalog row must not fail the surrounding
			// lesson completion.
			logger.Warn("Achievement code not in catalog", "code", code)
			return nil
		}
		return err
	}

	ua := &model.UserAchievement{
		ID:            uuid.New(),
		UserID:        userID,
		AchievementID: achievement.AchievementID,
		EarnedAt:      now,
	}
	if err := s.achievementRepo.CreateUserAchievement(ctx, tx, ua); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil
		}
		return err
	}

	logger.Info("Achievement unlocked", "user_id", userID.String(), "code", code)
	return nil
}

func (s *gamificationService) DailyCheckIn(ctx context.Context, userID uuid.UUID) (*model.CheckInResponse, error) {
	var resp *model.CheckInResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		today := model.UTCDay(now)

		progress, err := s.findOrCreateProgress(ctx, tx, userID)
		if err != nil {
			return err
		}

		if progress.LastActivityDate != nil && *progress.LastActivityDate == today {
			resp = &model.CheckInResponse{CheckedIn: false, XPAwarded: 0}
			return nil
		}

		if _, err := s.ApplyActivity(ctx, tx, userID, config.DailyCheckInXP, now); err != nil {
			return err
		}
		resp = &model.CheckInResponse{CheckedIn: true, XPAwarded: config.DailyCheckInXP}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *gamificationService) GetProgress(ctx context.Context, userID uuid.UUID) (*model.ProgressResponse, error) {
	progress, err := s.progressRepo.Find(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// No activity yet still reads as a fresh level-1 row.
			progress = &model.UserProgress{UserID: userID, TotalXP: 0, Level: 1}
		} else {
			return nil, err
		}
	}

	return &model.ProgressResponse{
		UserProgress:   *progress,
		XPForNextLevel: XPForLevel(progress.Level + 1),
	}, nil
}

func (s *gamificationService) ListAchievements(ctx context.Context, userID uuid.UUID) ([]*model.EarnedAchievementResponse, error) {
	unlocks, err := s.achievementRepo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*model.EarnedAchievementResponse, 0, len(unlocks))
	for _, ua := range unlocks {
		resp := &model.EarnedAchievementResponse{EarnedAt: ua.EarnedAt}
		if ua.Achievement != nil {
			resp.Code = ua.Achievement.Code
			resp.Title = ua.Achievement.Title
			resp.Description = ua.Achievement.Description
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *gamificationService) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := s.progressRepo.ListTop(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entry := &model.LeaderboardEntry{
			UserID:        row.UserID,
			TotalXP:       row.TotalXP,
			Level:         row.Level,
			CurrentStreak: row.CurrentStreak,
		}
		profile, err := s.profileRepo.FindByID(ctx, s.db, row.UserID)
		if err == nil {
			entry.Username = profile.Username
			if profile.WalletAddress != nil {
				entry.WalletAddress = *profile.WalletAddress
			}
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *gamificationService) Rank(ctx context.Context, userID uuid.UUID) (int, error) {
	progress, err := s.progressRepo.Find(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	higher, err := s.progressRepo.CountHigherXP(ctx, s.db, progress.TotalXP)
	if err != nil {
		return 0, err
	}
	return int(higher) + 1, nil
}

func (s *gamificationService) Stats(ctx context.Context) (*model.LandingStats, error) {
	students, err := s.profileRepo.CountProfiles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.CountPublishedCourses(ctx, s.db)
	if err != nil {
		return nil, err
	}
	certificates, err := s.certificateRepo.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}
	totalXP, err := s.progressRepo.SumTotalXP(ctx, s.db)
	if err != nil {
		return nil, err
	}

	return &model.LandingStats{
		ActiveStudents:     students,
		TotalCourses:       courses,
		CertificatesMinted: certificates,
		TotalXPEarned:      totalXP,
	}, nil
}
