package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionMode string

const (
	ModeTargeted SessionMode = "targeted"
	ModeMixed    SessionMode = "mixed"
	ModeReview   SessionMode = "review"
	ModeAdaptive SessionMode = "adaptive"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// PracticeSession is one bounded practice sitting. The question list is
// fixed at session start; the only later mutation is the end-of-session
// summary write, which is idempotent.
type PracticeSession struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	ExternalID string        `json:"external_id" gorm:"not null;size:36;uniqueIndex"`
	UserID     string        `json:"user_id" gorm:"not null;size:100;index"`
	Mode       SessionMode   `json:"mode" gorm:"not null;size:20" validate:"required,session_mode"`
	SkillID    *uint         `json:"skill_id" gorm:"index"`
	Status     SessionStatus `json:"status" gorm:"not null;size:20;default:active;index"`

	QuestionIDs datatypes.JSON `json:"question_ids" gorm:"type:jsonb;not null"` // []uint, ordered
	Summary     datatypes.JSON `json:"summary" gorm:"type:jsonb"`               // *SessionStats once ended

	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Attempts []PracticeAttempt `json:"attempts,omitempty" gorm:"foreignKey:SessionID"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}

// SessionStats is the denormalized end-of-session summary persisted on the
// session row and returned from the end-session call.
type SessionStats struct {
	QuestionsAttempted int     `json:"questions_attempted"`
	QuestionsCorrect   int     `json:"questions_correct"`
	AccuracyPct        float64 `json:"accuracy_pct"`
	TotalTimeSeconds   int     `json:"total_time_seconds"`
	AvgTimePerQuestion float64 `json:"avg_time_per_question"`
	PointsEarned       int     `json:"points_earned"`
}

// SkillDelta reports per-skill movement surfaced when a session ends.
type SkillDelta struct {
	SkillID     uint          `json:"skill_id"`
	SkillName   string        `json:"skill_name"`
	Attempted   int           `json:"attempted"`
	Correct     int           `json:"correct"`
	Level       float64       `json:"level"`
	Status      MasteryStatus `json:"status"`
}
