package models

import (
	"time"
)

type AchievementCode string

const (
	AchievementFirstSession  AchievementCode = "first_session"
	AchievementStreak5       AchievementCode = "streak_5"
	AchievementStreak10      AchievementCode = "streak_10"
	AchievementFirstMastery  AchievementCode = "first_mastery"
	AchievementFiveMasteries AchievementCode = "five_masteries"
	AchievementCentury       AchievementCode = "century"
)

// Achievement is a definition row; seeded at startup, looked up by code.
type Achievement struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Code        AchievementCode `json:"code" gorm:"not null;size:50;uniqueIndex"`
	Name        string          `json:"name" gorm:"not null;size:100"`
	Description string          `json:"description" gorm:"type:text"`
	Points      int             `json:"points" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement records one award. Awards are written best-effort after
// the grading transaction commits and are never a grading failure.
type UserAchievement struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	UserID        string `json:"user_id" gorm:"not null;size:100;uniqueIndex:idx_user_achievement"`
	AchievementID uint   `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`

	EarnedAt time.Time `json:"earned_at"`

	// Relations
	Achievement Achievement `json:"achievement,omitempty" gorm:"foreignKey:AchievementID"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
