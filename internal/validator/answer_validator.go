package validator

import (
	"encoding/json"
	"fmt"

	"github.com/praxis-edu/practice-service/internal/models"
)

// AnswerValidator checks that a question's type-specific payload has the
// shape the grader expects. It runs at the boundary: question create/update,
// bank import, and before grading.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// ValidatePayload validates a raw payload against its question type.
func (v *AnswerValidator) ValidatePayload(questionType models.QuestionType, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload cannot be empty")
	}

	switch questionType {
	case models.MultipleChoice:
		return v.validateChoicePayload(payload, false)
	case models.TrueFalse:
		return v.validateChoicePayload(payload, true)
	case models.MultiSelect:
		return v.validateMultiSelectPayload(payload)
	case models.Numeric:
		return v.validateNumericPayload(payload)
	case models.Text:
		return v.validateTextPayload(payload)
	default:
		return fmt.Errorf("unsupported question type: %s", questionType)
	}
}

// ValidateQuestion validates a complete question object.
func (v *AnswerValidator) ValidateQuestion(question *models.Question) error {
	if question.Prompt == "" {
		return fmt.Errorf("question prompt is required")
	}

	if question.Points < 1 || question.Points > 100 {
		return fmt.Errorf("question points must be between 1 and 100")
	}

	if question.DifficultyTier < 1 || question.DifficultyTier > 5 {
		return fmt.Errorf("difficulty tier must be between 1 and 5")
	}

	return v.ValidatePayload(question.Type, question.Payload)
}

func (v *AnswerValidator) validateChoicePayload(payload []byte, trueFalse bool) error {
	var content models.ChoicePayload
	if err := json.Unmarshal(payload, &content); err != nil {
		return fmt.Errorf("invalid choice payload: %w", err)
	}

	if trueFalse {
		if content.AnswerIndex != 0 && content.AnswerIndex != 1 {
			return fmt.Errorf("true_false answer index must be 0 or 1")
		}
		return nil
	}

	if len(content.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	if len(content.Options) > 10 {
		return fmt.Errorf("cannot have more than 10 options")
	}
	for i, option := range content.Options {
		if option == "" {
			return fmt.Errorf("option %d text cannot be empty", i)
		}
	}
	if content.AnswerIndex < 0 || content.AnswerIndex >= len(content.Options) {
		return fmt.Errorf("answer index %d out of range", content.AnswerIndex)
	}

	return nil
}

func (v *AnswerValidator) validateMultiSelectPayload(payload []byte) error {
	var content models.MultiSelectPayload
	if err := json.Unmarshal(payload, &content); err != nil {
		return fmt.Errorf("invalid multi_select payload: %w", err)
	}

	if len(content.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	if len(content.AnswerIndices) == 0 {
		return fmt.Errorf("must have at least 1 correct index")
	}
	for _, idx := range content.AnswerIndices {
		if idx < 0 || idx >= len(content.Options) {
			return fmt.Errorf("answer index %d out of range", idx)
		}
	}

	return nil
}

func (v *AnswerValidator) validateNumericPayload(payload []byte) error {
	var content models.NumericPayload
	if err := json.Unmarshal(payload, &content); err != nil {
		return fmt.Errorf("invalid numeric payload: %w", err)
	}

	if content.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative")
	}

	return nil
}

func (v *AnswerValidator) validateTextPayload(payload []byte) error {
	var content models.TextPayload
	if err := json.Unmarshal(payload, &content); err != nil {
		return fmt.Errorf("invalid text payload: %w", err)
	}

	if len(content.Accept) == 0 {
		return fmt.Errorf("must have at least 1 accepted answer")
	}
	for i, accept := range content.Accept {
		if accept == "" {
			return fmt.Errorf("accepted answer %d cannot be empty", i)
		}
	}

	return nil
}
