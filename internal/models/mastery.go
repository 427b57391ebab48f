package models

import (
	"time"
)

type MasteryStatus string

const (
	MasteryNew       MasteryStatus = "new"
	MasteryLearning  MasteryStatus = "learning"
	MasteryPracticed MasteryStatus = "practiced"
	MasteryMastered  MasteryStatus = "mastered"
)

// Mastery level boundaries. A record moves to mastered at or above
// MasteredThreshold and back to learning below LearningThreshold.
const (
	MasteredThreshold = 85.0
	LearningThreshold = 40.0
)

// MasteryRecord is the per (user, skill) aggregate. It is created lazily on
// the first graded attempt, updated exactly once per attempt inside the same
// transaction as the attempt insert, and never deleted.
type MasteryRecord struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"not null;size:100;uniqueIndex:idx_mastery_user_skill"`
	SkillID uint   `json:"skill_id" gorm:"not null;uniqueIndex:idx_mastery_user_skill"`

	Level            float64       `json:"level" gorm:"not null;default:0"` // 0-100
	Attempted        int           `json:"attempted" gorm:"not null;default:0"`
	Correct          int           `json:"correct" gorm:"not null;default:0"`
	CurrentStreak    int           `json:"current_streak" gorm:"not null;default:0"`
	BestStreak       int           `json:"best_streak" gorm:"not null;default:0"`
	TotalTimeSeconds int           `json:"total_time_seconds" gorm:"not null;default:0"`
	LastPracticed    *time.Time    `json:"last_practiced" gorm:"index"`
	Status           MasteryStatus `json:"status" gorm:"not null;size:20;default:new;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Skill Skill `json:"skill,omitempty" gorm:"foreignKey:SkillID"`
}

func (MasteryRecord) TableName() string {
	return "mastery_records"
}

// Accuracy returns the lifetime correct ratio for the record.
func (m *MasteryRecord) Accuracy() float64 {
	if m.Attempted == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Attempted)
}

// IdealTier is the difficulty tier adaptive selection centers on,
// floor(level/20) clamped to the 1..5 tier range.
func (m *MasteryRecord) IdealTier() int {
	tier := int(m.Level / 20)
	if tier < 1 {
		return 1
	}
	if tier > 5 {
		return 5
	}
	return tier
}

// StatusForLevel maps a mastery level to the status thresholds.
func StatusForLevel(level float64) MasteryStatus {
	switch {
	case level >= MasteredThreshold:
		return MasteryMastered
	case level < LearningThreshold:
		return MasteryLearning
	default:
		return MasteryPracticed
	}
}
