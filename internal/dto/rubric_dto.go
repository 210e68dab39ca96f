package dto

// RubricEntryRequest is one answer-key item inside a rubric submission.
type RubricEntryRequest struct {
	QuestionID    uint     `json:"question_id" validate:"required,gt=0"`
	CorrectAnswer string   `json:"correct_answer" validate:"required,min=1"`
	Keywords      []string `json:"keywords" validate:"omitempty,dive,min=1"`
}

// RubricSubmitRequest is the payload for submitting an answer key.
type RubricSubmitRequest struct {
	Entries []RubricEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// RubricSubmitResponse acknowledges an answer-key submission.
type RubricSubmitResponse struct {
	QuizID   uint `json:"quiz_id"`
	Upserted int  `json:"upserted"`
	Skipped  int  `json:"skipped"`
}
