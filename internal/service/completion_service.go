// internal/service/completion_service.go
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompletionService interface {
	CompleteLesson(ctx context.Context, userID uuid.UUID, lessonRef string, req *model.CompleteLessonRequest) (*model.CompleteLessonResult, error)
}

type completionService struct {
	db              *gorm.DB
	courseRepo      repository.CourseRepository
	enrollmentRepo  repository.EnrollmentRepository
	certificateRepo repository.CertificateRepository
	gamification    GamificationService
}

func NewCompletionService(
	db *gorm.DB,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	certificateRepo repository.CertificateRepository,
	gamification GamificationService,
) CompletionService {
	return &completionService{
		db:              db,
		courseRepo:      courseRepo,
		enrollmentRepo:  enrollmentRepo,
		certificateRepo: certificateRepo,
		gamification:    gamification,
	}
}

// CompleteLesson runs the completion state machine in a single transaction:
// resolve the lesson, enforce sequential order against the published lesson
// universe, record the completion exactly once, then fold the result into
// enrollment progress and gamification state. Replaying an already-completed
// lesson is a no-op apart from progress recomputation.
func (s *completionService) CompleteLesson(ctx context.Context, userID uuid.UUID, lessonRef string, req *model.CompleteLessonRequest) (*model.CompleteLessonResult, error) {
	logger := middleware.GetLogger(ctx)
	var result *model.CompleteLessonResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.FindCourseByRef(ctx, tx, req.CourseRef)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("COURSE_NOT_FOUND", "Course not found.", "course_ref", model.ErrNotFound)
			}
			return err
		}

		lesson, err := s.resolveLesson(ctx, tx, course.CourseID, lessonRef)
		if err != nil {
			return err
		}

		// A lesson referenced by id may belong to a different course than
		// the one named in the request. The completion is retargeted to the
		// user's enrollment for the lesson's actual course.
		if lesson.CourseID != course.CourseID {
			logger.Info("Retargeting completion to the lesson's course",
				"requested_course_id", course.CourseID.String(),
				"lesson_course_id", lesson.CourseID.String(),
			)
		}

		enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, tx, userID, lesson.CourseID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_ENROLLED", "You are not enrolled in this course.", "course_ref", model.ErrPrecondition)
			}
			return err
		}

		universe, err := s.lessonUniverse(ctx, tx, lesson.CourseID)
		if err != nil {
			return err
		}

		completions, err := s.enrollmentRepo.ListCompletionsByEnrollment(ctx, tx, enrollment.EnrollmentID)
		if err != nil {
			return err
		}
		completed := model.NewCompletionSet()
		for _, c := range completions {
			ref := model.LessonRef{ID: c.LessonID}
			if c.Lesson != nil {
				ref = c.Lesson.Ref()
			}
			completed.Add(ref)
		}

		// Replay: the lesson may already be recorded, possibly against a
		// stale enrollment row from a previous enroll cycle.
		existing, err := s.enrollmentRepo.FindCompletionByUserAndLesson(ctx, tx, userID, lesson.LessonID)
		if err == nil {
			if existing.EnrollmentID != enrollment.EnrollmentID {
				if err := s.enrollmentRepo.RelinkCompletion(ctx, tx, existing.CompletionID, enrollment.EnrollmentID, existing.XPEarned); err != nil {
					return err
				}
				logger.Info("Relinked stale lesson completion",
					"completion_id", existing.CompletionID.String(),
					"enrollment_id", enrollment.EnrollmentID.String(),
				)
			}
			result, err = s.refreshProgress(ctx, tx, userID, enrollment, universe)
			return err
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		// Sequential order: the target must be the first lesson in the
		// universe not yet completed.
		if err := checkOrdering(universe, completed, lesson); err != nil {
			return err
		}

		xp := lesson.XPReward
		if req.XPEarned > 0 {
			xp = req.XPEarned
		}

		completion := &model.LessonCompletion{
			CompletionID: uuid.New(),
			UserID:       userID,
			LessonID:     lesson.LessonID,
			EnrollmentID: enrollment.EnrollmentID,
			XPEarned:     xp,
		}
		if err := s.enrollmentRepo.CreateCompletion(ctx, tx, completion); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// A concurrent request inserted first. Adopt its row; if
				// it points at a stale enrollment, re-point it at ours.
				winner, ferr := s.enrollmentRepo.FindCompletionByUserAndLesson(ctx, tx, userID, lesson.LessonID)
				if ferr != nil {
					return ferr
				}
				if winner.EnrollmentID != enrollment.EnrollmentID {
					if rerr := s.enrollmentRepo.RelinkCompletion(ctx, tx, winner.CompletionID, enrollment.EnrollmentID, winner.XPEarned); rerr != nil {
						return rerr
					}
				}
				result, err = s.refreshProgress(ctx, tx, userID, enrollment, universe)
				return err
			}
			return err
		}

		now := time.Now()
		if _, err := s.gamification.ApplyActivity(ctx, tx, userID, xp, now); err != nil {
			return err
		}
		if err := s.gamification.AwardAchievement(ctx, tx, userID, model.AchievementFirstLesson, now); err != nil {
			return err
		}

		result, err = s.refreshProgress(ctx, tx, userID, enrollment, universe)
		if err != nil {
			return err
		}
		if result.CourseCompleted {
			if err := s.gamification.AwardAchievement(ctx, tx, userID, model.AchievementCourseComplete, now); err != nil {
				return err
			}
		}

		logger.Info("Lesson completed",
			"user_id", userID.String(),
			"lesson_id", lesson.LessonID.String(),
			"xp_earned", xp,
			"progress", result.ProgressPercentage,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveLesson accepts a UUID or a slug. An id lookup is global, so the
// lesson may belong to another course; a slug is scoped to the given one.
func (s *completionService) resolveLesson(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, lessonRef string) (*model.Lesson, error) {
	if id, err := uuid.Parse(lessonRef); err == nil {
		lesson, err := s.courseRepo.FindLessonByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.NewAppError("LESSON_NOT_FOUND", "Lesson not found.", "lesson_ref", model.ErrNotFound)
			}
			return nil, err
		}
		return lesson, nil
	}

	lesson, err := s.courseRepo.FindLessonBySlug(ctx, tx, courseID, lessonRef)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "Lesson not found.", "lesson_ref", model.ErrNotFound)
		}
		return nil, err
	}
	return lesson, nil
}

// lessonUniverse is the ordered set progress and ordering are judged
// against: published lessons, falling back to all lessons only when the
// course has none published. An unpublished target in a course with
// published lessons is outside the universe and fails the ordering check.
func (s *completionService) lessonUniverse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*model.Lesson, error) {
	published, err := s.courseRepo.ListLessons(ctx, tx, courseID, true)
	if err != nil {
		return nil, err
	}
	if len(published) > 0 {
		return published, nil
	}
	return s.courseRepo.ListLessons(ctx, tx, courseID, false)
}

func checkOrdering(universe []*model.Lesson, completed *model.CompletionSet, target *model.Lesson) error {
	for _, lesson := range universe {
		if completed.Contains(lesson.Ref()) {
			continue
		}
		if lesson.LessonID == target.LessonID {
			return nil
		}
		return model.NewAppError(
			"LESSON_OUT_OF_ORDER",
			"Lessons must be completed in order.",
			"lesson_ref",
			model.ErrOrderingViolation,
		)
	}
	// Everything in the universe is completed; an unknown extra target
	// slipped past resolution.
	return model.NewAppError("LESSON_OUT_OF_ORDER", "Lessons must be completed in order.", "lesson_ref", model.ErrOrderingViolation)
}

// refreshProgress recomputes enrollment progress from the current completion
// rows and stamps or clears CompletedAt as the percentage crosses 100.
func (s *completionService) refreshProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID, enrollment *model.Enrollment, universe []*model.Lesson) (*model.CompleteLessonResult, error) {
	completions, err := s.enrollmentRepo.ListCompletionsByEnrollment(ctx, tx, enrollment.EnrollmentID)
	if err != nil {
		return nil, err
	}

	completed := model.NewCompletionSet()
	for _, c := range completions {
		ref := model.LessonRef{ID: c.LessonID}
		if c.Lesson != nil {
			ref = c.Lesson.Ref()
		}
		completed.Add(ref)
	}

	matched := 0
	for _, lesson := range universe {
		if completed.Contains(lesson.Ref()) {
			matched++
		}
	}

	percentage := 0
	if len(universe) > 0 {
		percentage = int(math.Round(float64(matched) / float64(len(universe)) * 100))
		if percentage > 100 {
			percentage = 100
		}
	}

	completedAt := enrollment.CompletedAt
	if percentage >= 100 {
		if completedAt == nil {
			now := time.Now()
			completedAt = &now
		}
	} else {
		completedAt = nil
	}

	if err := s.enrollmentRepo.UpdateProgress(ctx, tx, enrollment.EnrollmentID, percentage, completedAt); err != nil {
		return nil, err
	}
	enrollment.ProgressPercentage = percentage
	enrollment.CompletedAt = completedAt

	result := &model.CompleteLessonResult{
		ProgressPercentage: percentage,
		CourseCompleted:    percentage >= 100,
	}

	if result.CourseCompleted {
		certificate, err := s.certificateRepo.FindByUserAndCourse(ctx, tx, userID, enrollment.CourseID)
		if err == nil {
			result.Certificate = certificate.ToResponse()
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	return result, nil
}
