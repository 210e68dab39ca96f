package ai

import "context"

// GradeInput contains the artefacts needed to judge one answer.
type GradeInput struct {
	QuestionText  string
	CorrectAnswer string
	StudentAnswer string
	Keywords      []string
}

// GradeResult is the structured verdict returned by the AI judge. Score is on
// a 0-100 scale.
type GradeResult struct {
	Score         float64                `json:"score"`
	Feedback      string                 `json:"feedback"`
	Justification string                 `json:"justification,omitempty"`
	Raw           map[string]interface{} `json:"raw,omitempty"`
}

// Grader describes an AI model capable of scoring a candidate answer against
// a reference answer.
type Grader interface {
	Grade(ctx context.Context, input GradeInput) (GradeResult, error)
}
