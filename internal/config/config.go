package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	OCRLanguages           []string
	OCRTimeout             time.Duration
	AIProvider             string
	OpenAIAPIKey           string
	AnthropicAPIKey        string
	OpenAIModel            string
	GradingWorkerLimit     int
	JudgeTimeout           time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NILAI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "NILAI API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "nilai/scans")
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.timeout", "60s")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("grading.worker_limit", 4)
	v.SetDefault("grading.judge_timeout", "45s")

	ocrTimeout, err := time.ParseDuration(v.GetString("ocr.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ocr timeout: %w", err)
	}

	judgeTimeout, err := time.ParseDuration(v.GetString("grading.judge_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		OCRLanguages:           splitLanguages(v.GetString("ocr.languages")),
		OCRTimeout:             ocrTimeout,
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AnthropicAPIKey:        v.GetString("anthropic_api_key"),
		OpenAIModel:            v.GetString("openai_model"),
		GradingWorkerLimit:     v.GetInt("grading.worker_limit"),
		JudgeTimeout:           judgeTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.GradingWorkerLimit <= 0 {
		cfg.GradingWorkerLimit = 4
	}

	return cfg, nil
}

func splitLanguages(raw string) []string {
	parts := strings.Split(raw, ",")
	languages := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return languages
}
