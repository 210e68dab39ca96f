package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/nilai-go-api/internal/models"
)

// RubricRepository exposes persistence helpers for rubric entries.
type RubricRepository interface {
	GetByQuestionID(ctx context.Context, questionID uint) (models.RubricEntry, error)
	Upsert(ctx context.Context, entry *models.RubricEntry) error
}

// NewRubricRepository constructs a rubric repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

type rubricRepository struct {
	db *gorm.DB
}

func (r *rubricRepository) GetByQuestionID(ctx context.Context, questionID uint) (models.RubricEntry, error) {
	var entry models.RubricEntry
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		First(&entry).Error
	if err != nil {
		return models.RubricEntry{}, err
	}
	return entry, nil
}

// Upsert overwrites the existing entry for the question or creates a new one.
// Rubric submission is idempotent per question.
func (r *rubricRepository) Upsert(ctx context.Context, entry *models.RubricEntry) error {
	var existing models.RubricEntry
	err := r.db.WithContext(ctx).
		Where("question_id = ?", entry.QuestionID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(entry).Error
		}
		return err
	}

	existing.CorrectAnswer = entry.CorrectAnswer
	existing.Keywords = entry.Keywords
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}

	*entry = existing
	return nil
}
