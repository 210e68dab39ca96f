package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nilai",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nilai",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/nilai-go-api/pkg/ai/openai"),
		logger: logger,
	}, nil
}

// Grade sends the grading request to OpenAI and parses the JSON verdict.
func (g *OpenAIGrader) Grade(parent context.Context, input GradeInput) (GradeResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradePrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseGradeResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	span.SetAttributes(attribute.Float64("grade.score", result.Score))

	return result, nil
}

func graderSystemPrompt() string {
	return "You are an expert grader with deep knowledge in education and assessment. Grade the student's answer against th" +
		"e correct answer, awarding partial credit for partially correct responses. Respond with a JSON object containing s" +
		"core (0-100), feedback, and justification. Be fair, consistent, and constructive."
}

func buildGradePrompt(input GradeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question\n")
	builder.WriteString(input.QuestionText)
	builder.WriteString("\n\n## Correct Answer\n")
	builder.WriteString(input.CorrectAnswer)
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.StudentAnswer)
	if len(input.Keywords) > 0 {
		builder.WriteString("\n\n## Keywords\n")
		builder.WriteString(strings.Join(input.Keywords, ", "))
	}
	builder.WriteString("\n\nExplain your reasoning step by step in the justification before settling on the score. Return JSON.")
	return builder.String()
}

func parseGradeResponse(content string) (GradeResult, error) {
	type payload struct {
		Score         float64 `json:"score"`
		Feedback      string  `json:"feedback"`
		Justification string  `json:"justification"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return GradeResult{}, fmt.Errorf("parse grade json: %w", err)
	}

	if data.Score < 0 {
		data.Score = 0
	}
	if data.Score > 100 {
		data.Score = 100
	}

	return GradeResult{
		Score:         data.Score,
		Feedback:      data.Feedback,
		Justification: data.Justification,
	}, nil
}
