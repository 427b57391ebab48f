package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/praxis-edu/practice-service/internal/errors"
	"github.com/praxis-edu/practice-service/internal/models"
)

// Validator combines struct-tag validation with question payload checks.
type Validator struct {
	structValidator *validator.Validate
	answerValidator *AnswerValidator
}

// New creates a new centralized validator instance.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		answerValidator: NewAnswerValidator(),
	}
}

// ValidateStruct validates struct tags and reports failures as the shared
// ValidationErrors type so handlers can map them to 400s uniformly.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.ToValidationErrors(err)
	}
	return err
}

// Validate performs complete validation.
func (v *Validator) Validate(s interface{}) error {
	return v.ValidateStruct(s)
}

// Answer returns the question payload validator.
func (v *Validator) Answer() *AnswerValidator {
	return v.answerValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("difficulty_tier", validateDifficultyTier)
	validate.RegisterValidation("session_mode", validateSessionMode)
	validate.RegisterValidation("mastery_status", validateMasteryStatus)

	// Report json field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.MultipleChoice,
		models.TrueFalse,
		models.MultiSelect,
		models.Numeric,
		models.Text,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateDifficultyTier(fl validator.FieldLevel) bool {
	tier := fl.Field().Int()
	return tier >= 1 && tier <= 5
}

func validateSessionMode(fl validator.FieldLevel) bool {
	validModes := []models.SessionMode{
		models.ModeTargeted,
		models.ModeMixed,
		models.ModeReview,
		models.ModeAdaptive,
	}

	value := fl.Field().String()
	for _, validMode := range validModes {
		if string(validMode) == value {
			return true
		}
	}
	return false
}

func validateMasteryStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.MasteryStatus{
		models.MasteryNew,
		models.MasteryLearning,
		models.MasteryPracticed,
		models.MasteryMastered,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}
