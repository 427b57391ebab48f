package models

// Per-type question payload shapes. Exactly one of these is stored in
// Question.Payload depending on Question.Type; the validator package checks
// the shape at the boundary before a question is created or graded.

// ChoicePayload backs mcq and true_false questions. For true_false the
// options are implicitly ["true", "false"] and AnswerIndex is 0 or 1.
type ChoicePayload struct {
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// MultiSelectPayload backs multi_select questions. AnswerIndices is the
// canonical set of correct option indices.
type MultiSelectPayload struct {
	Options       []string `json:"options"`
	AnswerIndices []int    `json:"answer_indices"`
}

// NumericPayload backs numeric questions. A submission is correct when
// abs(submitted - Value) <= Tolerance. Tolerance defaults to 0.
type NumericPayload struct {
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
	Unit      *string `json:"unit,omitempty"`
}

// TextPayload backs text questions. Any case-insensitive, whitespace-trimmed
// match against Accept is correct.
type TextPayload struct {
	Accept []string `json:"accept"`
}

// Submitted answer shapes, tagged by the question type of the question being
// answered. The grader parses the raw submission into one of these.

type ChoiceSubmission struct {
	SelectedIndex int `json:"selected_index"`
}

type MultiSelectSubmission struct {
	SelectedIndices []int `json:"selected_indices"`
}

type NumericSubmission struct {
	Value string `json:"value"` // raw user input, parsed leniently
}

type TextSubmission struct {
	Text string `json:"text"`
}
