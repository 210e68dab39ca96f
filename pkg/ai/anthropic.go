package ai

import (
	"context"
	"fmt"
)

// AnthropicConfig placeholder for anthropic integration configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicGrader is a stub implementation that can be expanded once the SDK
// is available.
type AnthropicGrader struct{}

// NewAnthropicGrader constructs a new stub grader.
func NewAnthropicGrader(cfg AnthropicConfig) (*AnthropicGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return &AnthropicGrader{}, nil
}

// Grade is not yet implemented for Anthropic models.
func (a *AnthropicGrader) Grade(ctx context.Context, input GradeInput) (GradeResult, error) {
	return GradeResult{}, fmt.Errorf("anthropic grader not implemented")
}
