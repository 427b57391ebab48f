package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/praxis-edu/practice-service/internal/models"
)

// EventType represents the practice event kinds published downstream.
type EventType string

const (
	// Attempt events
	EventAttemptGraded EventType = "attempt.graded"

	// Session events
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"

	// Mastery events
	EventSkillMastered EventType = "mastery.skill_mastered"

	// Achievement events
	EventAchievementEarned EventType = "achievement.earned"
)

// PracticeEvent is the envelope for all published practice events.
type PracticeEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AttemptGradedEvent struct {
	AttemptID    uint    `json:"attempt_id"`
	SessionID    uint    `json:"session_id"`
	QuestionID   uint    `json:"question_id"`
	SkillID      uint    `json:"skill_id"`
	UserID       string  `json:"user_id"`
	IsCorrect    bool    `json:"is_correct"`
	PointsEarned int     `json:"points_earned"`
	MasteryLevel float64 `json:"mastery_level"`
}

type SessionStartedEvent struct {
	SessionID     uint               `json:"session_id"`
	UserID        string             `json:"user_id"`
	Mode          models.SessionMode `json:"mode"`
	SkillID       *uint              `json:"skill_id,omitempty"`
	QuestionCount int                `json:"question_count"`
}

type SessionCompletedEvent struct {
	SessionID uint                `json:"session_id"`
	UserID    string              `json:"user_id"`
	Mode      models.SessionMode  `json:"mode"`
	Stats     models.SessionStats `json:"stats"`
}

type SkillMasteredEvent struct {
	UserID    string  `json:"user_id"`
	SkillID   uint    `json:"skill_id"`
	SkillName string  `json:"skill_name,omitempty"`
	Level     float64 `json:"level"`
}

type AchievementEarnedEvent struct {
	UserID          string                 `json:"user_id"`
	AchievementCode models.AchievementCode `json:"achievement_code"`
	AchievementName string                 `json:"achievement_name"`
	Points          int                    `json:"points"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *PracticeEvent {
	return &PracticeEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "practice-service",
		Version:   "1.0",
		Data:      data,
	}
}

func NewAttemptGradedEvent(attempt *models.PracticeAttempt, masteryLevel float64) *PracticeEvent {
	return newEvent(EventAttemptGraded, AttemptGradedEvent{
		AttemptID:    attempt.ID,
		SessionID:    attempt.SessionID,
		QuestionID:   attempt.QuestionID,
		SkillID:      attempt.SkillID,
		UserID:       attempt.UserID,
		IsCorrect:    attempt.IsCorrect,
		PointsEarned: attempt.PointsEarned,
		MasteryLevel: masteryLevel,
	})
}

func NewSessionStartedEvent(session *models.PracticeSession, questionCount int) *PracticeEvent {
	return newEvent(EventSessionStarted, SessionStartedEvent{
		SessionID:     session.ID,
		UserID:        session.UserID,
		Mode:          session.Mode,
		SkillID:       session.SkillID,
		QuestionCount: questionCount,
	})
}

func NewSessionCompletedEvent(session *models.PracticeSession, stats models.SessionStats) *PracticeEvent {
	return newEvent(EventSessionCompleted, SessionCompletedEvent{
		SessionID: session.ID,
		UserID:    session.UserID,
		Mode:      session.Mode,
		Stats:     stats,
	})
}

func NewSkillMasteredEvent(userID string, skillID uint, skillName string, level float64) *PracticeEvent {
	return newEvent(EventSkillMastered, SkillMasteredEvent{
		UserID:    userID,
		SkillID:   skillID,
		SkillName: skillName,
		Level:     level,
	})
}

func NewAchievementEarnedEvent(userID string, achievement *models.Achievement) *PracticeEvent {
	return newEvent(EventAchievementEarned, AchievementEarnedEvent{
		UserID:          userID,
		AchievementCode: achievement.Code,
		AchievementName: achievement.Name,
		Points:          achievement.Points,
	})
}
