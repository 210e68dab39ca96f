package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nilai-go-api/internal/dto"
	"github.com/noah-isme/nilai-go-api/internal/handler"
	"github.com/noah-isme/nilai-go-api/internal/service"
)

type mockIntakeService struct {
	lastPayload dto.SubmissionCreateRequest
	response    dto.SubmissionResponse
	err         error
}

func (m *mockIntakeService) Submit(_ context.Context, payload dto.SubmissionCreateRequest, _ *multipart.FileHeader) (dto.SubmissionResponse, error) {
	m.lastPayload = payload
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

type mockGradingService struct {
	lastID   uint
	response dto.SubmissionResponse
	err      error
}

func (m *mockGradingService) Grade(_ context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	m.lastID = submissionID
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockGradingService) Get(_ context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	m.lastID = submissionID
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.Unmarshal(body, target))
}

func newSubmissionApp(intake service.IntakeService, grading service.GradingService) *fiber.App {
	app := fiber.New()
	h := handler.NewSubmissionHandler(intake, grading, zerolog.New(io.Discard))
	h.RegisterQuizRoutes(app.Group("/api/v1/quizzes"))
	h.Register(app.Group("/api/v1/submissions"))
	return app
}

func multipartScanRequest(t *testing.T, url, studentID string) *http.Request {
	t.Helper()

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	require.NoError(t, writer.WriteField("student_id", studentID))
	part, err := writer.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buffer)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmissionHandler_CreateSuccess(t *testing.T) {
	intake := &mockIntakeService{response: dto.SubmissionResponse{ID: 7, QuizID: 2, StudentID: 5, OCRStatus: "completed"}}
	app := newSubmissionApp(intake, &mockGradingService{})

	resp, err := app.Test(multipartScanRequest(t, "/api/v1/quizzes/2/submissions", "5"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "submission accepted", response.Message)
	require.Equal(t, uint(7), response.Data.ID)
	require.Equal(t, uint(2), intake.lastPayload.QuizID)
	require.Equal(t, uint(5), intake.lastPayload.StudentID)
}

func TestSubmissionHandler_CreateRequiresFile(t *testing.T) {
	intake := &mockIntakeService{}
	app := newSubmissionApp(intake, &mockGradingService{})

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	require.NoError(t, writer.WriteField("student_id", "5"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/2/submissions", &buffer)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, intake.lastPayload.QuizID)
}

func TestSubmissionHandler_CreateServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "quiz missing", err: service.ErrQuizNotFound, statusCode: fiber.StatusNotFound},
		{name: "bad scan type", err: service.ErrUnsupportedScanType, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionApp(&mockIntakeService{err: tc.err}, &mockGradingService{})

			resp, err := app.Test(multipartScanRequest(t, "/api/v1/quizzes/2/submissions", "5"))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestSubmissionHandler_GradeSuccess(t *testing.T) {
	score := 85.0
	grading := &mockGradingService{response: dto.SubmissionResponse{ID: 7, GradingStatus: "completed", Score: &score}}
	app := newSubmissionApp(&mockIntakeService{}, grading)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/submissions/7/grade", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, uint(7), grading.lastID)
	require.NotNil(t, response.Data.Score)
	require.InDelta(t, 85.0, *response.Data.Score, 0.001)
}

func TestSubmissionHandler_GradeServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrSubmissionNotFound, statusCode: fiber.StatusNotFound},
		{name: "ocr pending", err: service.ErrSubmissionNotReady, statusCode: fiber.StatusConflict},
		{name: "already running", err: service.ErrGradingInProgress, statusCode: fiber.StatusConflict},
		{name: "no grader", err: service.ErrGraderUnavailable, statusCode: fiber.StatusServiceUnavailable},
		{name: "judge failure", err: errors.New("judge call failed: boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionApp(&mockIntakeService{}, &mockGradingService{err: tc.err})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/submissions/7/grade", nil))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestSubmissionHandler_GetSuccess(t *testing.T) {
	grading := &mockGradingService{response: dto.SubmissionResponse{ID: 7, OCRStatus: "completed", GradingStatus: "pending"}}
	app := newSubmissionApp(&mockIntakeService{}, grading)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/7", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), grading.lastID)
}

func TestSubmissionHandler_GetInvalidID(t *testing.T) {
	app := newSubmissionApp(&mockIntakeService{}, &mockGradingService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
