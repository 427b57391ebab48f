package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/praxis-edu/practice-service/internal/models"
)

// Mastery curve parameters. Gains scale with the distance to 100 so the
// level is bounded, and with the current correct streak up to a cap.
// Losses are proportional to the current level so the floor at 0 holds.
const (
	masteryBaseGain      = 0.10
	masteryStreakBonus   = 0.02
	masteryStreakCap     = 10
	masteryIncorrectLoss = 0.15
)

// checkAnswer decides correctness for one submission per the question
// type's semantics and returns the canonical answer for the response body.
// An unparseable numeric submission grades incorrect rather than erroring;
// structurally invalid submissions for other types are input errors.
func checkAnswer(question *models.Question, submitted json.RawMessage) (bool, interface{}, error) {
	switch question.Type {
	case models.MultipleChoice, models.TrueFalse:
		return checkChoice(json.RawMessage(question.Payload), submitted)
	case models.MultiSelect:
		return checkMultiSelect(json.RawMessage(question.Payload), submitted)
	case models.Numeric:
		return checkNumeric(json.RawMessage(question.Payload), submitted)
	case models.Text:
		return checkText(json.RawMessage(question.Payload), submitted)
	default:
		return false, nil, fmt.Errorf("%w: %s", ErrQuestionInvalidType, question.Type)
	}
}

func checkChoice(payload, submitted json.RawMessage) (bool, interface{}, error) {
	var key models.ChoicePayload
	if err := json.Unmarshal(payload, &key); err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrQuestionInvalidPayload, err)
	}
	var sub models.ChoiceSubmission
	if err := json.Unmarshal(submitted, &sub); err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrUnparseableAnswer, err)
	}
	return sub.SelectedIndex == key.AnswerIndex, key.AnswerIndex, nil
}

// checkMultiSelect compares the submitted indices as a set: order and
// duplicates in the submission are ignored.
func checkMultiSelect(payload, submitted json.RawMessage) (bool, interface{}, error) {
	var key models.MultiSelectPayload
	if err := json.Unmarshal(payload, &key); err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrQuestionInvalidPayload, err)
	}
	var sub models.MultiSelectSubmission
	if err := json.Unmarshal(submitted, &sub); err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrUnparseableAnswer, err)
	}

	want := make(map[int]struct{}, len(key.AnswerIndices))
	for _, idx := range key.AnswerIndices {
		want[idx] = struct{}{}
	}
	got := make(map[int]struct{}, len(sub.SelectedIndices))
	for _, idx := range sub.SelectedIndices {
		got[idx] = struct{}{}
	}

	correct := len(want) == len(got)
	if correct {
		for idx := range want {
			if _, ok := got[idx]; !ok {
				correct = false
				break
			}
		}
	}
	return correct, key.AnswerIndices, nil
}

func checkNumeric(payload, submitted json.RawMessage) (bool, interface{}, error) {
	var key models.NumericPayload
	if err := json.Unmarshal(payload, &key); err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrQuestionInvalidPayload, err)
	}

	value, ok := parseNumericSubmission(submitted)
	if !ok {
		// Non-numeric input is a wrong answer, not a request error.
		return false, key.Value, nil
	}
	return math.Abs(value-key.Value) <= key.Tolerance, key.Value, nil
}

// parseNumericSubmission accepts either a bare JSON number/string or the
// {"value": "..."} submission envelope.
func parseNumericSubmission(submitted json.RawMessage) (float64, bool) {
	var sub models.NumericSubmission
	if err := json.Unmarshal(submitted, &sub); err == nil && sub.Value != "" {
		return parseFloat(sub.Value)
	}

	var number float64
	if err := json.Unmarshal(submitted, &number); err == nil {
		return number, true
	}

	var raw string
	if err := json.Unmarshal(submitted, &raw); err == nil {
		return parseFloat(raw)
	}
	return 0, false
}

func parseFloat(s string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func checkText(payload, submitted json.RawMessage) (bool, interface{}, error) {
	var key models.TextPayload
	if err := json.Unmarshal(payload, &key); err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrQuestionInvalidPayload, err)
	}

	text, ok := parseTextSubmission(submitted)
	if !ok {
		return false, nil, ErrUnparseableAnswer
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, accept := range key.Accept {
		if normalized == strings.ToLower(strings.TrimSpace(accept)) {
			return true, key.Accept, nil
		}
	}
	return false, key.Accept, nil
}

func parseTextSubmission(submitted json.RawMessage) (string, bool) {
	var sub models.TextSubmission
	if err := json.Unmarshal(submitted, &sub); err == nil && sub.Text != "" {
		return sub.Text, true
	}
	var raw string
	if err := json.Unmarshal(submitted, &raw); err == nil {
		return raw, true
	}
	return "", false
}

// advanceMastery applies one graded attempt to a mastery record: counters,
// streaks, level, status and last-practiced. The level stays within [0,100],
// never decreases on a correct answer and never increases on an incorrect
// one.
func advanceMastery(record *models.MasteryRecord, isCorrect bool, timeTakenSeconds int, now time.Time) {
	record.Attempted++
	record.TotalTimeSeconds += timeTakenSeconds

	if isCorrect {
		record.Correct++
		record.CurrentStreak++
		if record.CurrentStreak > record.BestStreak {
			record.BestStreak = record.CurrentStreak
		}

		streak := record.CurrentStreak
		if streak > masteryStreakCap {
			streak = masteryStreakCap
		}
		gain := (100 - record.Level) * (masteryBaseGain + masteryStreakBonus*float64(streak))
		record.Level += gain
	} else {
		record.CurrentStreak = 0
		record.Level -= record.Level * masteryIncorrectLoss
	}

	if record.Level < 0 {
		record.Level = 0
	}
	if record.Level > 100 {
		record.Level = 100
	}

	record.Status = models.StatusForLevel(record.Level)
	record.LastPracticed = &now
}

// attemptPoints awards the question's point value minus one point per hint
// used, never below one point for a correct answer. Incorrect answers earn
// nothing.
func attemptPoints(question *models.Question, isCorrect bool, hintsUsed int) int {
	if !isCorrect {
		return 0
	}
	points := question.Points - hintsUsed
	if points < 1 {
		points = 1
	}
	return points
}
