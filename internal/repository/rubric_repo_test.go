package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/nilai-go-api/internal/models"
)

func TestRubricRepositoryUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRubricRepository(db)

	entry := models.RubricEntry{
		QuestionID:    7,
		CorrectAnswer: "Paris",
		Keywords:      datatypes.JSON([]byte(`["Paris","capital"]`)),
	}
	require.NoError(t, repo.Upsert(context.Background(), &entry))
	firstID := entry.ID

	updated := models.RubricEntry{
		QuestionID:    7,
		CorrectAnswer: "Paris, France",
	}
	require.NoError(t, repo.Upsert(context.Background(), &updated))
	require.Equal(t, firstID, updated.ID, "upsert must update, not duplicate")

	var count int64
	require.NoError(t, db.Model(&models.RubricEntry{}).Where("question_id = ?", 7).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetByQuestionID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Paris, France", stored.CorrectAnswer)
}

func TestQuizRepositoryListQuestionsOrdersByPosition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	quiz := models.Quiz{Title: "Geography"}
	require.NoError(t, db.Create(&quiz).Error)
	require.NoError(t, db.Create(&models.Question{QuizID: quiz.ID, Position: 2, Text: "Q2", QuestionType: models.QuestionTypeShortAnswer}).Error)
	require.NoError(t, db.Create(&models.Question{QuizID: quiz.ID, Position: 1, Text: "Q1", QuestionType: models.QuestionTypeShortAnswer}).Error)

	questions, err := repo.ListQuestions(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, 1, questions[0].Position)
	require.Equal(t, 2, questions[1].Position)

	exists, err := repo.QuestionExists(context.Background(), quiz.ID, questions[0].ID)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.QuestionExists(context.Background(), quiz.ID, 9999)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestQuizRepositoryQuestionExistsIsScopedToQuiz(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)

	geography := models.Quiz{Title: "Geography"}
	biology := models.Quiz{Title: "Biology"}
	require.NoError(t, db.Create(&geography).Error)
	require.NoError(t, db.Create(&biology).Error)

	question := models.Question{QuizID: geography.ID, Position: 1, Text: "Capital of France?", QuestionType: models.QuestionTypeShortAnswer}
	require.NoError(t, db.Create(&question).Error)

	exists, err := repo.QuestionExists(context.Background(), geography.ID, question.ID)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.QuestionExists(context.Background(), biology.ID, question.ID)
	require.NoError(t, err)
	require.False(t, exists, "a question must not be visible through another quiz")
}
