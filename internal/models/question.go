package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "mcq"
	TrueFalse      QuestionType = "true_false"
	MultiSelect    QuestionType = "multi_select"
	Numeric        QuestionType = "numeric"
	Text           QuestionType = "text"
)

// Question is one practice item. It belongs to exactly one skill and one
// bank and is never mutated by student activity; Payload holds the
// type-specific option/answer-key structure (see answer.go).
type Question struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	SkillID uint         `json:"skill_id" gorm:"not null;index" validate:"required"`
	BankID  uint         `json:"bank_id" gorm:"not null;index" validate:"required"`
	Type    QuestionType `json:"type" gorm:"not null;size:20;index" validate:"required,question_type"`
	Prompt  string       `json:"prompt" gorm:"type:text;not null" validate:"required,min=1"`

	// Type-specific options and answer key, one shape per question type.
	Payload datatypes.JSON `json:"payload" gorm:"type:jsonb;not null" validate:"required"`

	DifficultyTier int            `json:"difficulty_tier" gorm:"not null;index" validate:"required,difficulty_tier"`
	Points         int            `json:"points" gorm:"default:10" validate:"min=1,max=100"`
	Hints          datatypes.JSON `json:"hints" gorm:"type:jsonb"`          // []string, ordered
	SolutionSteps  datatypes.JSON `json:"solution_steps" gorm:"type:jsonb"` // []string, ordered

	CreatedBy string         `json:"created_by" gorm:"not null;size:100;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Skill Skill        `json:"skill,omitempty" gorm:"foreignKey:SkillID"`
	Bank  QuestionBank `json:"bank,omitempty" gorm:"foreignKey:BankID"`
}

func (Question) TableName() string {
	return "questions"
}
