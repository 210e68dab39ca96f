package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nilai-go-api/internal/config"
	"github.com/noah-isme/nilai-go-api/internal/database"
	"github.com/noah-isme/nilai-go-api/internal/handler"
	"github.com/noah-isme/nilai-go-api/internal/middleware"
	"github.com/noah-isme/nilai-go-api/internal/models"
	"github.com/noah-isme/nilai-go-api/internal/repository"
	"github.com/noah-isme/nilai-go-api/internal/router"
	"github.com/noah-isme/nilai-go-api/internal/service"
	"github.com/noah-isme/nilai-go-api/pkg/ai"
	cloud "github.com/noah-isme/nilai-go-api/pkg/cloudinary"
	"github.com/noah-isme/nilai-go-api/pkg/ocr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Quiz{}, &models.Question{}, &models.RubricEntry{}, &models.Submission{}, &models.AnswerRecord{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, review queue disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, grading events disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	grader, err := buildGrader(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create grader: %v", err)
	}

	recognizer := ocr.NewTesseractRecognizer(ocr.TesseractConfig{
		Languages: cfg.OCRLanguages,
		Logger:    logger,
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	quizRepo := repository.NewQuizRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	reviewQueue := service.NewReviewQueue(redisClient, logger)
	events := service.NewEventPublisher(natsConn, "nilai", logger)

	intakeService := service.NewIntakeService(submissionRepo, quizRepo, recognizer, uploader, reviewQueue, events, validate, logger, service.IntakeConfig{
		OCRTimeout: cfg.OCRTimeout,
	})
	gradingService := service.NewGradingService(submissionRepo, quizRepo, rubricRepo, grader, events, logger, service.GradingConfig{
		WorkerLimit:  cfg.GradingWorkerLimit,
		JudgeTimeout: cfg.JudgeTimeout,
	})
	rubricService := service.NewRubricService(rubricRepo, quizRepo, validate, logger)

	submissionHandler := handler.NewSubmissionHandler(intakeService, gradingService, logger)
	rubricHandler := handler.NewRubricHandler(rubricService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    32 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: submissionHandler,
		RubricHandler:     rubricHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, logger zerolog.Logger) (ai.Grader, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return ai.NewAnthropicGrader(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey})
	default:
		return ai.NewOpenAIGrader(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
