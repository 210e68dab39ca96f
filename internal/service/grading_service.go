package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/nilai-go-api/internal/dto"
	"github.com/noah-isme/nilai-go-api/internal/models"
	"github.com/noah-isme/nilai-go-api/internal/observability"
	"github.com/noah-isme/nilai-go-api/internal/repository"
	"github.com/noah-isme/nilai-go-api/pkg/ai"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionNotReady indicates grading was attempted before OCR completed.
var ErrSubmissionNotReady = errors.New("submission text recognition has not completed")

// ErrGradingInProgress indicates another grading run holds the submission.
var ErrGradingInProgress = errors.New("grading already in progress")

// ErrGraderUnavailable indicates no AI judge is configured.
var ErrGraderUnavailable = errors.New("grader unavailable")

// GradingService drives complete grading runs over recognized submissions.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error)
	Get(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error)
}

// GradingConfig carries orchestration knobs.
type GradingConfig struct {
	// WorkerLimit bounds concurrent judge calls within one run to respect
	// provider rate limits.
	WorkerLimit int
	// JudgeTimeout bounds a single judge call so one stalled request cannot
	// block the run indefinitely.
	JudgeTimeout time.Duration
}

type gradingService struct {
	submissions repository.SubmissionRepository
	quizzes     repository.QuizRepository
	rubrics     repository.RubricRepository
	grader      ai.Grader
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	config      GradingConfig
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(submissionRepo repository.SubmissionRepository, quizRepo repository.QuizRepository, rubricRepo repository.RubricRepository, grader ai.Grader, events EventPublisher, logger zerolog.Logger, cfg GradingConfig) GradingService {
	if cfg.WorkerLimit <= 0 {
		cfg.WorkerLimit = 4
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = 45 * time.Second
	}

	return &gradingService{
		submissions: submissionRepo,
		quizzes:     quizRepo,
		rubrics:     rubricRepo,
		grader:      grader,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		config:      cfg,
	}
}

// gradableQuestion pairs a question with its resolved rubric entry and the
// candidate answer segmented out of the recognized text.
type gradableQuestion struct {
	question  models.Question
	reference string
	keywords  []string
	candidate string
}

func (s *gradingService) Get(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/nilai-go-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.run")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	if s.grader == nil {
		return dto.SubmissionResponse{}, ErrGraderUnavailable
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.OCRStatus != models.TaskStatusCompleted {
		// Grading without recognized text is a terminal failure for this axis;
		// the judge is never invoked.
		if _, err := s.submissions.SetGradingStatus(ctx, submission.ID, submission.GradingStatus, models.TaskStatusFailed); err != nil {
			s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to mark grading failed")
		}
		span.SetStatus(codes.Error, "ocr_not_completed")
		observability.GradingRuns().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, ErrSubmissionNotReady
	}

	if !submission.CanStartGrading() {
		return dto.SubmissionResponse{}, ErrGradingInProgress
	}

	// Compare-and-swap so a concurrent trigger observes a consistent snapshot
	// and exactly one run proceeds.
	applied, err := s.submissions.SetGradingStatus(ctx, submission.ID, submission.GradingStatus, models.TaskStatusProcessing)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !applied {
		return dto.SubmissionResponse{}, ErrGradingInProgress
	}
	submission.GradingStatus = models.TaskStatusProcessing
	// A score may only exist alongside a completed grading status; drop any
	// leftovers from a previous run before this one settles.
	submission.Score = nil
	submission.Feedback = ""

	questions, err := s.quizzes.ListQuestions(ctx, submission.QuizID)
	if err != nil {
		return dto.SubmissionResponse{}, s.failRun(ctx, &submission, "question lookup failed", err)
	}
	if len(questions) == 0 {
		submission.Feedback = "No questions found for this quiz"
		if err := s.finishRun(ctx, &submission, models.TaskStatusFailed); err != nil {
			return dto.SubmissionResponse{}, err
		}
		observability.GradingRuns().WithLabelValues("failed").Inc()
		return dto.NewSubmissionResponse(submission), nil
	}

	text := ""
	if submission.OCRText != nil {
		text = *submission.OCRText
	}
	answers := SegmentAnswers(text)

	gradable, err := s.resolveRubrics(ctx, questions, answers)
	if err != nil {
		return dto.SubmissionResponse{}, s.failRun(ctx, &submission, "rubric lookup failed", err)
	}

	records, err := s.judgeAll(ctx, submission.ID, gradable)
	if err != nil {
		// A single judge failure aborts the whole run; no partial commit.
		return dto.SubmissionResponse{}, s.failRun(ctx, &submission, "judge call failed", err)
	}

	if err := s.submissions.ReplaceAnswers(ctx, submission.ID, records); err != nil {
		return dto.SubmissionResponse{}, s.failRun(ctx, &submission, "answer persistence failed", err)
	}

	var total float64
	for _, record := range records {
		total += record.Score
	}
	average := 0.0
	if len(records) > 0 {
		average = total / float64(len(records))
	}

	submission.Score = &average
	submission.Feedback = fmt.Sprintf("Overall score: %.1f%%.", average)
	if err := s.finishRun(ctx, &submission, models.TaskStatusCompleted); err != nil {
		return dto.SubmissionResponse{}, err
	}
	submission.Answers = records

	observability.GradingRuns().WithLabelValues("completed").Inc()
	observability.GradingScores().Observe(average)

	if s.events != nil {
		s.events.Publish(EventSubmissionGraded, GradingEvent{
			SubmissionID: submission.ID,
			QuizID:       submission.QuizID,
			StudentID:    submission.StudentID,
			Status:       string(models.TaskStatusCompleted),
			Score:        &average,
		})
	}

	span.SetAttributes(
		attribute.Float64("grading.score", average),
		attribute.Int("grading.answer_records", len(records)),
	)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("score", average).
		Int("graded_questions", len(records)).
		Int("total_questions", len(questions)).
		Msg("grading run completed")

	return dto.NewSubmissionResponse(submission), nil
}

// resolveRubrics matches each question to its rubric entry and candidate
// answer. Questions without a rubric entry are skipped entirely: no answer
// record, excluded from the aggregate denominator. A question with a rubric
// but no segmented answer is graded with an empty candidate.
func (s *gradingService) resolveRubrics(ctx context.Context, questions []models.Question, answers map[int]string) ([]gradableQuestion, error) {
	gradable := make([]gradableQuestion, 0, len(questions))

	for _, question := range questions {
		entry, err := s.rubrics.GetByQuestionID(ctx, question.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Debug().Uint("question_id", question.ID).Msg("no rubric entry, question skipped")
				continue
			}
			return nil, err
		}

		gradable = append(gradable, gradableQuestion{
			question:  question,
			reference: entry.CorrectAnswer,
			keywords:  decodeKeywords(entry.Keywords),
			candidate: answers[question.Position],
		})
	}

	return gradable, nil
}

// judgeAll grades every rubric-backed question, issuing judge calls
// concurrently up to the worker limit. Results are folded back by question
// order regardless of completion order, and aggregation waits for every
// issued call.
func (s *gradingService) judgeAll(ctx context.Context, submissionID uint, gradable []gradableQuestion) ([]models.AnswerRecord, error) {
	if len(gradable) == 0 {
		return nil, nil
	}

	records := make([]models.AnswerRecord, len(gradable))
	judgeErrs := make([]error, len(gradable))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.config.WorkerLimit)

	for i, item := range gradable {
		wg.Add(1)
		go func(index int, item gradableQuestion) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			judgeCtx, cancel := context.WithTimeout(ctx, s.config.JudgeTimeout)
			defer cancel()

			result, err := s.grader.Grade(judgeCtx, ai.GradeInput{
				QuestionText:  item.question.Text,
				CorrectAnswer: item.reference,
				StudentAnswer: item.candidate,
				Keywords:      item.keywords,
			})
			if err != nil {
				judgeErrs[index] = fmt.Errorf("question %d: %w", item.question.Position, err)
				return
			}

			records[index] = models.AnswerRecord{
				SubmissionID: submissionID,
				QuestionID:   item.question.ID,
				AnswerText:   item.candidate,
				Score:        result.Score,
				Feedback:     s.sanitizer.Sanitize(result.Feedback),
			}
		}(i, item)
	}

	wg.Wait()

	for _, err := range judgeErrs {
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

// failRun forces the grading axis to failed and wraps the causing error.
func (s *gradingService) failRun(ctx context.Context, submission *models.Submission, stage string, cause error) error {
	if err := s.finishRun(ctx, submission, models.TaskStatusFailed); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to record grading failure")
	}
	observability.GradingRuns().WithLabelValues("failed").Inc()
	return fmt.Errorf("%s: %w", stage, cause)
}

func (s *gradingService) finishRun(ctx context.Context, submission *models.Submission, status models.TaskStatus) error {
	if !submission.GradingStatus.CanTransition(status) {
		return fmt.Errorf("invalid grading transition: %s to %s", submission.GradingStatus, status)
	}
	submission.GradingStatus = status
	return s.submissions.Update(ctx, submission)
}

func decodeKeywords(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal(raw, &keywords); err != nil {
		return nil
	}
	return keywords
}
