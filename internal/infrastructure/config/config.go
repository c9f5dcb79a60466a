package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Inference InferenceConfig
	Fetch     FetchConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// InferenceConfig holds the text-generation service configuration.
// APIKey is read once at startup and injected into the backends.
type InferenceConfig struct {
	APIKey         string   `envconfig:"GEMINI_API_KEY"`
	Models         []string `envconfig:"AUDIT_MODELS" default:"gemini-2.0-flash-exp,gemini-2.0-flash,gemini-1.5-flash,gemini-1.5-pro"`
	BreakerEnabled bool     `envconfig:"INFERENCE_BREAKER_ENABLED" default:"true"`
}

// FetchConfig holds target retrieval configuration.
type FetchConfig struct {
	Timeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	MaxBody int64         `envconfig:"FETCH_MAX_BODY" default:"10485760"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"2"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"5"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	// envconfig splits on commas but keeps surrounding spaces
	cfg.Inference.Models = trimList(cfg.Inference.Models)
	cfg.CORS.Origins = trimList(cfg.CORS.Origins)
	return &cfg, nil
}

// trimList trims each entry and drops empty ones
func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Inference: InferenceConfig{
			Models:         DefaultModels(),
			BreakerEnabled: true,
		},
		Fetch: FetchConfig{
			Timeout: 20 * time.Second,
			MaxBody: 10 * 1024 * 1024,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// DefaultModels is the fallback order: the experimental model first,
// progressively more stable models after.
func DefaultModels() []string {
	return []string{
		"gemini-2.0-flash-exp",
		"gemini-2.0-flash",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

// HasCredential reports whether an inference credential is configured.
func (c *Config) HasCredential() bool {
	return c.Inference.APIKey != ""
}
