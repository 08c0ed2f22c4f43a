// internal/model/enrollment.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment is the single active (user, course) membership. Progress is
// recomputed on every completion; CompletedAt is stamped the first time
// progress reaches 100 and cleared again if it later drops below 100.
type Enrollment struct {
	EnrollmentID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"enrollment_id"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	CourseID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	ProgressPercentage int        `gorm:"not null;default:0" json:"progress_percentage"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LessonCompletion records one completed lesson. The (user_id, lesson_id)
// unique index is the serialization point for concurrent completions: the
// loser of an insert race is a reconciliation input, not an error.
type LessonCompletion struct {
	CompletionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"completion_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_user_lesson,unique" json:"user_id"`
	LessonID     uuid.UUID `gorm:"type:uuid;not null;index:idx_user_lesson,unique" json:"lesson_id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"enrollment_id"`
	XPEarned     int       `gorm:"not null;default:0" json:"xp_earned"`
	CreatedAt    time.Time `json:"created_at"`

	Lesson *Lesson `gorm:"foreignKey:LessonID;references:LessonID" json:"-"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}

// CompleteLessonRequest is the body for POST /lessons/{lesson_ref}/complete.
type CompleteLessonRequest struct {
	CourseRef string `json:"course_ref" validate:"required"`
	XPEarned  int    `json:"xp_earned" validate:"gte=0"`
}

// CompleteLessonResult is the caller-facing outcome of a completion.
type CompleteLessonResult struct {
	ProgressPercentage int                  `json:"progress_percentage"`
	CourseCompleted    bool                 `json:"course_completed"`
	Certificate        *CertificateResponse `json:"certificate,omitempty"`
}

// EnrollRequest is the body for POST /courses/{course_ref}/enroll.
// The course reference travels in the URL; the body is currently empty but
// kept for forward compatibility.
type EnrollRequest struct{}

// EnrollmentResponse is the client-facing enrollment shape.
type EnrollmentResponse struct {
	EnrollmentID       uuid.UUID  `json:"enrollment_id"`
	CourseID           uuid.UUID  `json:"course_id"`
	CourseSlug         string     `json:"course_slug,omitempty"`
	CourseTitle        string     `json:"course_title,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"enrolled_at"`
}

func (e *Enrollment) ToResponse() *EnrollmentResponse {
	resp := &EnrollmentResponse{
		EnrollmentID:       e.EnrollmentID,
		CourseID:           e.CourseID,
		ProgressPercentage: e.ProgressPercentage,
		CompletedAt:        e.CompletedAt,
		CreatedAt:          e.CreatedAt,
	}
	if e.Course != nil {
		resp.CourseSlug = e.Course.Slug
		resp.CourseTitle = e.Course.Title
	}
	return resp
}
