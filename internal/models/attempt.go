package models

import (
	"time"

	"gorm.io/datatypes"
)

// PracticeAttempt is one graded submission. Rows are append-only; all
// session and mastery aggregates are derivable by replaying them.
type PracticeAttempt struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SessionID  uint   `json:"session_id" gorm:"not null;index"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	SkillID    uint   `json:"skill_id" gorm:"not null;index"`
	UserID     string `json:"user_id" gorm:"not null;size:100;index"`

	Submitted        datatypes.JSON `json:"submitted" gorm:"type:jsonb"`
	IsCorrect        bool           `json:"is_correct" gorm:"not null"`
	HintsUsed        int            `json:"hints_used" gorm:"not null;default:0"`
	TimeTakenSeconds int            `json:"time_taken_seconds" gorm:"not null;default:0"`
	PointsEarned     int            `json:"points_earned" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relations
	Session  PracticeSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Question Question        `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (PracticeAttempt) TableName() string {
	return "practice_attempts"
}
