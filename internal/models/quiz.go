package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported question formats.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeShortAnswer    = "short_answer"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeEssay          = "essay"
)

// Quiz groups the questions one answer sheet responds to. Quizzes are authored
// by an external subsystem and consumed read-only here.
type Quiz struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question belongs to exactly one quiz. Position is the 1-based display order
// and lines up with the numbering students write on their answer sheets.
type Question struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	QuizID       uint           `gorm:"not null;index" json:"quiz_id"`
	Position     int            `gorm:"not null" json:"position"`
	Text         string         `gorm:"type:text;not null" json:"text"`
	QuestionType string         `gorm:"size:32;not null" json:"question_type"`
	Options      datatypes.JSON `json:"options,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RubricEntry holds the reference answer for one question plus optional
// keywords used as partial-credit hints. One entry per question; rubric
// submission upserts rather than duplicates.
type RubricEntry struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuestionID    uint           `gorm:"not null;uniqueIndex" json:"question_id"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"`
	Keywords      datatypes.JSON `json:"keywords,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
