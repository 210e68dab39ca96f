package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/nilai-go-api/internal/dto"
	"github.com/noah-isme/nilai-go-api/internal/models"
	"github.com/noah-isme/nilai-go-api/internal/observability"
	"github.com/noah-isme/nilai-go-api/internal/repository"
	"github.com/noah-isme/nilai-go-api/pkg/ocr"
)

// ErrQuizNotFound indicates the referenced quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrUnsupportedScanType indicates the uploaded file is not a supported scan format.
var ErrUnsupportedScanType = errors.New("unsupported scan file type")

// FileUploader abstracts scan storage destinations.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// IntakeService accepts scanned answer sheets, stores the originals, and runs
// text recognition synchronously.
type IntakeService interface {
	Submit(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
}

// IntakeConfig carries intake tuning knobs.
type IntakeConfig struct {
	// OCRTimeout bounds a single recognition call so a stalled OCR backend
	// cannot block intake indefinitely.
	OCRTimeout time.Duration
}

type intakeService struct {
	submissions repository.SubmissionRepository
	quizzes     repository.QuizRepository
	recognizer  ocr.Recognizer
	uploader    FileUploader
	reviews     ReviewQueue
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	config      IntakeConfig
}

// NewIntakeService constructs an IntakeService instance.
func NewIntakeService(submissionRepo repository.SubmissionRepository, quizRepo repository.QuizRepository, recognizer ocr.Recognizer, uploader FileUploader, reviews ReviewQueue, events EventPublisher, validate *validator.Validate, logger zerolog.Logger, cfg IntakeConfig) IntakeService {
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 60 * time.Second
	}

	return &intakeService{
		submissions: submissionRepo,
		quizzes:     quizRepo,
		recognizer:  recognizer,
		uploader:    uploader,
		reviews:     reviews,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "intake_service").Logger(),
		config:      cfg,
	}
}

var allowedScanTypes = []string{"application/pdf", "image/png", "image/jpeg", "image/tiff"}

func (s *intakeService) Submit(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/nilai-go-api/internal/service/intake")
	ctx, span := tracer.Start(ctx, "intake.submit")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission file is required")
	}

	if _, err := s.quizzes.GetByID(ctx, payload.QuizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrQuizNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	content, err := readFile(file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := validateScanType(content); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported_scan_type")
		return dto.SubmissionResponse{}, err
	}

	fileURL, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(content))
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload scan: %w", err)
	}

	submission := models.Submission{
		QuizID:        payload.QuizID,
		StudentID:     payload.StudentID,
		FileURL:       fileURL,
		OCRStatus:     models.TaskStatusProcessing,
		GradingStatus: models.TaskStatusPending,
	}

	s.recognize(ctx, &submission, content)

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if submission.NeedsReview {
		observability.ReviewFlagged().Inc()
		if s.reviews != nil {
			if err := s.reviews.Enqueue(ctx, submission.ID); err != nil {
				s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to enqueue review flag")
			}
		}
	}

	if s.events != nil {
		s.events.Publish(EventSubmissionReceived, GradingEvent{
			SubmissionID: submission.ID,
			QuizID:       submission.QuizID,
			StudentID:    submission.StudentID,
			Status:       string(submission.OCRStatus),
		})
	}

	span.SetAttributes(
		attribute.Int64("submission.id", int64(submission.ID)),
		attribute.String("submission.ocr_status", string(submission.OCRStatus)),
		attribute.Bool("submission.needs_review", submission.NeedsReview),
	)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("ocr_status", string(submission.OCRStatus)).
		Bool("needs_review", submission.NeedsReview).
		Msg("submission accepted")

	return dto.NewSubmissionResponse(submission), nil
}

// recognize runs OCR and folds the outcome into the submission. Recognition
// failures are terminal for the OCR axis, never returned to the caller.
func (s *intakeService) recognize(ctx context.Context, submission *models.Submission, content []byte) {
	ocrCtx, cancel := context.WithTimeout(ctx, s.config.OCRTimeout)
	defer cancel()

	result, err := s.recognizer.Recognize(ocrCtx, content)
	if err != nil {
		s.logger.Error().Err(err).Msg("recognition failed")
		submission.SetRecognitionFailure(fmt.Sprintf("OCR failed: %s", err.Error()))
		return
	}

	submission.SetRecognizedText(result.Text, result.Confidence)
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

func validateScanType(content []byte) error {
	detected := mimetype.Detect(content)
	for _, allowed := range allowedScanTypes {
		if detected.Is(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedScanType, detected.String())
}
