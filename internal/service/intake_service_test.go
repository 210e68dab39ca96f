package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nilai-go-api/internal/dto"
	"github.com/noah-isme/nilai-go-api/internal/models"
	"github.com/noah-isme/nilai-go-api/pkg/ocr"
)

type stubRecognizer struct {
	result ocr.Result
	err    error
}

func (s stubRecognizer) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	return s.result, s.err
}

type stubUploader struct {
	url string
	err error
}

func (s stubUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	return s.url, s.err
}

type stubReviewQueue struct {
	enqueued []uint
}

func (s *stubReviewQueue) Enqueue(ctx context.Context, submissionID uint) error {
	s.enqueued = append(s.enqueued, submissionID)
	return nil
}

func (s *stubReviewQueue) Pending(ctx context.Context, limit int64) ([]uint, error) {
	return s.enqueued, nil
}

// pngHeader is enough for content-type sniffing without a full image.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func newIntakeService(repo *stubSubmissionRepo, quizzes *stubQuizRepo, recognizer ocr.Recognizer, reviews ReviewQueue) IntakeService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewIntakeService(repo, quizzes, recognizer, stubUploader{url: "https://cdn.example.com/scan.png"}, reviews, nil, validate, zerolog.Nop(), IntakeConfig{})
}

func TestIntakeServiceAcceptsScanAndRunsOCR(t *testing.T) {
	repo := &stubSubmissionRepo{}
	quizzes := &stubQuizRepo{quiz: models.Quiz{ID: 2, Title: "Geography"}}
	recognizer := stubRecognizer{result: ocr.Result{Text: "1. Paris", Confidence: 0.91}}
	reviews := &stubReviewQueue{}
	svc := newIntakeService(repo, quizzes, recognizer, reviews)

	file := multipartFile(t, "scan.png", pngHeader)
	response, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{QuizID: 2, StudentID: 3}, file)
	require.NoError(t, err)

	require.Equal(t, string(models.TaskStatusCompleted), response.OCRStatus)
	require.NotNil(t, response.OCRText)
	require.Equal(t, "1. Paris", *response.OCRText)
	require.NotNil(t, response.OCRConfidence)
	require.Equal(t, 0.91, *response.OCRConfidence)
	require.Equal(t, string(models.TaskStatusPending), response.GradingStatus)
	require.Equal(t, "https://cdn.example.com/scan.png", response.FileURL)
	require.False(t, response.NeedsReview)
	require.Empty(t, reviews.enqueued)
}

func TestIntakeServiceFlagsLowConfidenceForReview(t *testing.T) {
	repo := &stubSubmissionRepo{}
	quizzes := &stubQuizRepo{quiz: models.Quiz{ID: 2}}
	recognizer := stubRecognizer{result: ocr.Result{Text: "1. Paris", Confidence: 0.42}}
	reviews := &stubReviewQueue{}
	svc := newIntakeService(repo, quizzes, recognizer, reviews)

	file := multipartFile(t, "scan.png", pngHeader)
	response, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{QuizID: 2, StudentID: 3}, file)
	require.NoError(t, err)

	require.True(t, response.NeedsReview)
	require.Equal(t, string(models.TaskStatusCompleted), response.OCRStatus, "low confidence flags but does not block")
	require.Equal(t, []uint{response.ID}, reviews.enqueued)
}

func TestIntakeServiceRecordsRecognitionFailure(t *testing.T) {
	repo := &stubSubmissionRepo{}
	quizzes := &stubQuizRepo{quiz: models.Quiz{ID: 2}}
	recognizer := stubRecognizer{err: errors.New("corrupt image")}
	svc := newIntakeService(repo, quizzes, recognizer, &stubReviewQueue{})

	file := multipartFile(t, "scan.png", pngHeader)
	response, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{QuizID: 2, StudentID: 3}, file)
	require.NoError(t, err, "recognition failure is recorded, not propagated")

	require.Equal(t, string(models.TaskStatusFailed), response.OCRStatus)
	require.NotNil(t, response.OCRText)
	require.Equal(t, "OCR failed: corrupt image", *response.OCRText)
	require.NotNil(t, response.OCRConfidence)
	require.Equal(t, 0.0, *response.OCRConfidence)
	require.Equal(t, string(models.TaskStatusPending), response.GradingStatus)
}

func TestIntakeServiceRejectsUnsupportedFileType(t *testing.T) {
	repo := &stubSubmissionRepo{}
	quizzes := &stubQuizRepo{quiz: models.Quiz{ID: 2}}
	svc := newIntakeService(repo, quizzes, stubRecognizer{}, &stubReviewQueue{})

	file := multipartFile(t, "notes.txt", []byte("plain text, not a scan"))
	_, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{QuizID: 2, StudentID: 3}, file)
	require.ErrorIs(t, err, ErrUnsupportedScanType)
}

func TestIntakeServiceQuizNotFound(t *testing.T) {
	repo := &stubSubmissionRepo{}
	quizzes := &stubQuizRepo{missing: true}
	svc := newIntakeService(repo, quizzes, stubRecognizer{}, &stubReviewQueue{})

	file := multipartFile(t, "scan.png", pngHeader)
	_, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{QuizID: 2, StudentID: 3}, file)
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestIntakeServiceValidatesPayload(t *testing.T) {
	svc := newIntakeService(&stubSubmissionRepo{}, &stubQuizRepo{}, stubRecognizer{}, &stubReviewQueue{})

	file := multipartFile(t, "scan.png", pngHeader)
	_, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{QuizID: 0, StudentID: 3}, file)
	require.Error(t, err)
}
