package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/nilai-go-api/internal/dto"
	"github.com/noah-isme/nilai-go-api/internal/models"
	"github.com/noah-isme/nilai-go-api/internal/repository"
)

// RubricService ingests answer keys for quizzes.
type RubricService interface {
	Submit(ctx context.Context, quizID uint, payload dto.RubricSubmitRequest) (dto.RubricSubmitResponse, error)
}

type rubricService struct {
	rubrics   repository.RubricRepository
	quizzes   repository.QuizRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricService constructs a rubric ingestion service.
func NewRubricService(rubricRepo repository.RubricRepository, quizRepo repository.QuizRepository, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:   rubricRepo,
		quizzes:   quizRepo,
		validator: validate,
		logger:    logger.With().Str("component", "rubric_service").Logger(),
	}
}

// Submit upserts each answer-key item: existing entries for a question are
// overwritten, unknown question references are skipped. Submitting the same
// key twice leaves exactly one entry per question.
func (s *rubricService) Submit(ctx context.Context, quizID uint, payload dto.RubricSubmitRequest) (dto.RubricSubmitResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricSubmitResponse{}, err
	}

	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricSubmitResponse{}, ErrQuizNotFound
		}
		return dto.RubricSubmitResponse{}, err
	}

	response := dto.RubricSubmitResponse{QuizID: quizID}

	for _, item := range payload.Entries {
		exists, err := s.quizzes.QuestionExists(ctx, quizID, item.QuestionID)
		if err != nil {
			return dto.RubricSubmitResponse{}, err
		}
		if !exists {
			s.logger.Warn().Uint("question_id", item.QuestionID).Uint("quiz_id", quizID).Msg("rubric entry references question outside quiz, skipped")
			response.Skipped++
			continue
		}

		keywords, err := encodeKeywords(item.Keywords)
		if err != nil {
			return dto.RubricSubmitResponse{}, err
		}

		entry := models.RubricEntry{
			QuestionID:    item.QuestionID,
			CorrectAnswer: item.CorrectAnswer,
			Keywords:      keywords,
		}
		if err := s.rubrics.Upsert(ctx, &entry); err != nil {
			return dto.RubricSubmitResponse{}, fmt.Errorf("upsert rubric entry: %w", err)
		}
		response.Upserted++
	}

	s.logger.Info().
		Uint("quiz_id", quizID).
		Int("upserted", response.Upserted).
		Int("skipped", response.Skipped).
		Msg("rubric submitted")

	return response, nil
}

func encodeKeywords(keywords []string) (datatypes.JSON, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("encode keywords: %w", err)
	}
	return datatypes.JSON(encoded), nil
}
