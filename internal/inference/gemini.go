package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

// contentGenerator is the subset of *genai.Models the backend needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiBackend calls one Gemini model in JSON output mode
type GeminiBackend struct {
	model  string
	models contentGenerator
	config *genai.GenerateContentConfig
}

// NewGeminiClient creates the shared API client. The key is required.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, audit.ErrMissingCredential
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiBackends builds one backend per model, preserving order
func NewGeminiBackends(client *genai.Client, models []string) []Backend {
	backends := make([]Backend, 0, len(models))
	for _, m := range models {
		backends = append(backends, newGeminiBackend(client.Models, m))
	}
	return backends
}

func newGeminiBackend(models contentGenerator, model string) *GeminiBackend {
	return &GeminiBackend{
		model:  model,
		models: models,
		config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.2),
		},
	}
}

func (g *GeminiBackend) ID() string {
	return g.model
}

// Generate sends prompt as a single user turn and returns the reply text
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s (HTTP %d): %s", apiErr.Status, apiErr.Code, apiErr.Message)
		}
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty response")
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}
	return resp.Text(), nil
}
