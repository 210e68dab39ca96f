package dto

import (
	"time"

	"github.com/noah-isme/nilai-go-api/internal/models"
)

// SubmissionCreateRequest carries the metadata accompanying an uploaded scan.
type SubmissionCreateRequest struct {
	QuizID    uint `json:"quiz_id" validate:"required,gt=0"`
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// AnswerRecordResponse is the judged outcome for one question.
type AnswerRecordResponse struct {
	ID         uint    `json:"id"`
	QuestionID uint    `json:"question_id"`
	AnswerText string  `json:"answer_text"`
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
}

// SubmissionResponse represents a submission to API consumers.
type SubmissionResponse struct {
	ID            uint                   `json:"id"`
	QuizID        uint                   `json:"quiz_id"`
	StudentID     uint                   `json:"student_id"`
	FileURL       string                 `json:"file_url"`
	OCRStatus     string                 `json:"ocr_status"`
	OCRText       *string                `json:"ocr_text"`
	OCRConfidence *float64               `json:"ocr_confidence"`
	GradingStatus string                 `json:"grading_status"`
	Score         *float64               `json:"score"`
	Feedback      string                 `json:"feedback"`
	NeedsReview   bool                   `json:"needs_review"`
	CreatedAt     time.Time              `json:"created_at"`
	Answers       []AnswerRecordResponse `json:"answers,omitempty"`
}

// NewSubmissionResponse builds a response DTO from a model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            submission.ID,
		QuizID:        submission.QuizID,
		StudentID:     submission.StudentID,
		FileURL:       submission.FileURL,
		OCRStatus:     string(submission.OCRStatus),
		OCRText:       submission.OCRText,
		OCRConfidence: submission.OCRConfidence,
		GradingStatus: string(submission.GradingStatus),
		Score:         submission.Score,
		Feedback:      submission.Feedback,
		NeedsReview:   submission.NeedsReview,
		CreatedAt:     submission.CreatedAt,
	}

	if len(submission.Answers) > 0 {
		answers := make([]AnswerRecordResponse, 0, len(submission.Answers))
		for _, answer := range submission.Answers {
			answers = append(answers, NewAnswerRecordResponse(answer))
		}
		response.Answers = answers
	}

	return response
}

// NewAnswerRecordResponse converts an AnswerRecord model into a DTO.
func NewAnswerRecordResponse(record models.AnswerRecord) AnswerRecordResponse {
	return AnswerRecordResponse{
		ID:         record.ID,
		QuestionID: record.QuestionID,
		AnswerText: record.AnswerText,
		Score:      record.Score,
		Feedback:   record.Feedback,
	}
}
