package models

import "time"

// ImportSummary reports the outcome of a question bank import.
type ImportSummary struct {
	TotalRows        int                     `json:"total_rows"`
	ProcessedRows    int                     `json:"processed_rows"`
	SuccessCount     int                     `json:"success_count"`
	ErrorCount       int                     `json:"error_count"`
	CreatedQuestions []uint                  `json:"created_questions"`
	Errors           []ImportValidationError `json:"errors"`
	ProcessingTime   time.Duration           `json:"processing_time"`
}

// ImportValidationError pins an import failure to its source row.
type ImportValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ExportRequest selects which questions to export and in what format.
type ExportRequest struct {
	BankID         *uint          `json:"bank_id"`
	SkillID        *uint          `json:"skill_id"`
	Format         string         `json:"format" validate:"required,oneof=xlsx csv json"`
	QuestionTypes  []QuestionType `json:"question_types"`
	IncludeAnswers bool           `json:"include_answers"`
}
