package models

import "time"

// ReviewConfidenceThreshold is the recognition confidence below which a
// submission is flagged for manual review. The flag never blocks grading.
const ReviewConfidenceThreshold = 0.70

// Submission represents one scanned answer sheet tied to a quiz and a student.
// OCR and grading progress independently: grading may only start once the OCR
// axis reports completed.
type Submission struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuizID        uint           `gorm:"not null;index" json:"quiz_id"`
	StudentID     uint           `gorm:"not null;index" json:"student_id"`
	FileURL       string         `gorm:"size:512" json:"file_url"`
	OCRStatus     TaskStatus     `gorm:"size:32;not null" json:"ocr_status"`
	OCRText       *string        `gorm:"type:text" json:"ocr_text"`
	OCRConfidence *float64       `json:"ocr_confidence"`
	GradingStatus TaskStatus     `gorm:"size:32;not null" json:"grading_status"`
	Score         *float64       `json:"score"`
	Feedback      string         `gorm:"type:text" json:"feedback"`
	NeedsReview   bool           `gorm:"not null;default:false" json:"needs_review"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Answers       []AnswerRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers,omitempty"`
}

// CanStartGrading reports whether a grading run may begin for the submission.
// Re-grading a completed or failed run is allowed and overwrites earlier
// answer records; only a run already in flight blocks a new one.
func (s Submission) CanStartGrading() bool {
	return s.OCRStatus == TaskStatusCompleted && s.GradingStatus != TaskStatusProcessing
}

// SetRecognizedText stores the OCR result and flags low-confidence scans for
// manual review. Text and confidence are always set together.
func (s *Submission) SetRecognizedText(text string, confidence float64) {
	s.OCRText = &text
	s.OCRConfidence = &confidence
	s.OCRStatus = TaskStatusCompleted
	s.NeedsReview = confidence < ReviewConfidenceThreshold
}

// SetRecognitionFailure records a terminal OCR failure, substituting the
// diagnostic message for the recognized text.
func (s *Submission) SetRecognitionFailure(message string) {
	confidence := 0.0
	s.OCRText = &message
	s.OCRConfidence = &confidence
	s.OCRStatus = TaskStatusFailed
}

// AnswerRecord captures the judged outcome for one question within one
// submission. A grading run produces exactly one record per rubric-backed
// question; re-grading replaces earlier records.
type AnswerRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	QuestionID   uint      `gorm:"not null;index" json:"question_id"`
	AnswerText   string    `gorm:"type:text" json:"answer_text"`
	Score        float64   `gorm:"not null" json:"score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
}
