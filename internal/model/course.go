// internal/model/course.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is the unit of enrollment. Lessons reference it via CourseID;
// the completion threshold is always "all published lessons done".
type Course struct {
	CourseID    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"course_id"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	IsPublished bool           `gorm:"not null;default:false" json:"is_published"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Lessons []Lesson `gorm:"foreignKey:CourseID" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// Lesson belongs to a course. OrderIndex defines the completion sequence.
// Slug is a secondary identity key: legacy completion rows may reference a
// lesson by slug instead of by id, so matching must accept either.
type Lesson struct {
	LessonID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Slug        string    `gorm:"not null;index" json:"slug"`
	Title       string    `gorm:"not null" json:"title"`
	OrderIndex  int       `gorm:"not null;default:0" json:"order_index"`
	XPReward    int       `gorm:"not null;default:50" json:"xp_reward"`
	IsPublished bool      `gorm:"not null;default:false" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Ref returns the lesson's dual identity.
func (l *Lesson) Ref() LessonRef {
	return LessonRef{ID: l.LessonID, Slug: l.Slug}
}

// LessonRef is a lesson identity carrying both keys. Matching by either
// field is centralized here instead of ad hoc id-then-slug branches at
// every call site.
type LessonRef struct {
	ID   uuid.UUID
	Slug string
}

// CompletionSet indexes completed lessons by id and by slug.
type CompletionSet struct {
	ids   map[uuid.UUID]struct{}
	slugs map[string]struct{}
}

func NewCompletionSet() *CompletionSet {
	return &CompletionSet{
		ids:   make(map[uuid.UUID]struct{}),
		slugs: make(map[string]struct{}),
	}
}

func (s *CompletionSet) Add(ref LessonRef) {
	if ref.ID != uuid.Nil {
		s.ids[ref.ID] = struct{}{}
	}
	if ref.Slug != "" {
		s.slugs[ref.Slug] = struct{}{}
	}
}

// Contains reports whether the lesson is completed, matching by id first
// and falling back to slug.
func (s *CompletionSet) Contains(ref LessonRef) bool {
	if _, ok := s.ids[ref.ID]; ok {
		return true
	}
	if ref.Slug != "" {
		if _, ok := s.slugs[ref.Slug]; ok {
			return true
		}
	}
	return false
}
