package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/nilai-go-api/internal/models"
)

// QuizRepository exposes read access to quizzes and their questions. Quiz
// content is authored elsewhere; the grading pipeline never mutates it.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListQuestions(ctx context.Context, quizID uint) ([]models.Question, error)
	// QuestionExists reports whether the question belongs to the given quiz.
	QuestionExists(ctx context.Context, quizID, questionID uint) (bool, error)
}

// NewQuizRepository constructs a quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

type quizRepository struct {
	db *gorm.DB
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) ListQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *quizRepository) QuestionExists(ctx context.Context, quizID, questionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
