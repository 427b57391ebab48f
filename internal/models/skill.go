package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Skill is a single learnable unit students are tracked against.
// Metadata is instructor-editable; once questions reference a skill its
// identity is fixed.
type Skill struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description   *string        `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Grade         int            `json:"grade" gorm:"not null;index" validate:"required,min=1,max=13"`
	Unit          int            `json:"unit" gorm:"not null;index" validate:"required,min=1"`
	OrderIndex    int            `json:"order_index" gorm:"default:0"`
	Prerequisites datatypes.JSON `json:"prerequisites" gorm:"type:jsonb"` // []uint of skill IDs

	CreatedBy string         `json:"created_by" gorm:"not null;size:100;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:SkillID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
}

func (Skill) TableName() string {
	return "skills"
}

// QuestionBank is a named collection of practice questions scoped to a skill.
type QuestionBank struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	SkillID     uint    `json:"skill_id" gorm:"not null;index" validate:"required"`
	Name        string  `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:100;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Skill     Skill      `json:"skill,omitempty" gorm:"foreignKey:SkillID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:BankID"`
}

func (QuestionBank) TableName() string {
	return "question_banks"
}
