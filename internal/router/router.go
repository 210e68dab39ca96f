package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/nilai-go-api/internal/config"
	"github.com/noah-isme/nilai-go-api/internal/handler"
	"github.com/noah-isme/nilai-go-api/internal/middleware"
	"github.com/noah-isme/nilai-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	RubricHandler     *handler.RubricHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	quizzes := api.Group("/quizzes", jwtMiddleware)
	submissions := api.Group("/submissions", jwtMiddleware)

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterQuizRoutes(quizzes)
		// Grading triggers a full judge run per question; keep retriggers bounded.
		deps.SubmissionHandler.Register(submissions, middleware.RateLimit("grade", 5, time.Minute))
	}

	if deps.RubricHandler != nil {
		deps.RubricHandler.Register(quizzes)
	}
}
