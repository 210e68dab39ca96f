package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nilai-go-api/internal/dto"
	"github.com/noah-isme/nilai-go-api/internal/service"
	"github.com/noah-isme/nilai-go-api/internal/utils"
)

// SubmissionHandler manages scan intake and grading endpoints.
type SubmissionHandler struct {
	intake  service.IntakeService
	grading service.GradingService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(intake service.IntakeService, grading service.GradingService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		intake:  intake,
		grading: grading,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterQuizRoutes attaches intake routes under the quiz group.
func (h *SubmissionHandler) RegisterQuizRoutes(router fiber.Router) {
	router.Post("/:quizId/submissions", h.create)
}

// Register attaches submission routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router, gradeMiddleware ...fiber.Handler) {
	router.Get("/:id", h.get)

	handlers := append([]fiber.Handler{}, gradeMiddleware...)
	handlers = append(handlers, h.grade)
	router.Post("/:id/grade", handlers...)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := parseUintForm(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "scan file is required")
	}

	payload := dto.SubmissionCreateRequest{
		QuizID:    quizID,
		StudentID: studentID,
	}

	submission, err := h.intake.Submit(c.UserContext(), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "submission accepted", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.grading.Grade(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.grading.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrSubmissionNotReady):
		return utils.SendError(c, fiber.StatusConflict, "text recognition has not completed for this submission")
	case errors.Is(err, service.ErrGradingInProgress):
		return utils.SendError(c, fiber.StatusConflict, "grading already in progress")
	case errors.Is(err, service.ErrUnsupportedScanType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGraderUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "grading backend unavailable")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
