package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

type fakeModels struct {
	gotModel  string
	gotPrompt string
	gotConfig *genai.GenerateContentConfig
	resp      *genai.GenerateContentResponse
	err       error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGeminiBackendGenerate(t *testing.T) {
	fake := &fakeModels{resp: textResponse(`{"defects":[]}`)}
	b := newGeminiBackend(fake, "gemini-2.0-flash")

	text, err := b.Generate(context.Background(), "audit this")
	require.NoError(t, err)
	assert.Equal(t, `{"defects":[]}`, text)
	assert.Equal(t, "gemini-2.0-flash", b.ID())
	assert.Equal(t, "gemini-2.0-flash", fake.gotModel)
	assert.Equal(t, "audit this", fake.gotPrompt)
	assert.Equal(t, "application/json", fake.gotConfig.ResponseMIMEType)
}

func TestGeminiBackendAPIError(t *testing.T) {
	fake := &fakeModels{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded"}}
	_, err := newGeminiBackend(fake, "m").Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "RESOURCE_EXHAUSTED (HTTP 429): Quota exceeded", err.Error())
}

func TestGeminiBackendTransportError(t *testing.T) {
	fake := &fakeModels{err: errors.New("dial tcp: connection refused")}
	_, err := newGeminiBackend(fake, "m").Generate(context.Background(), "p")
	assert.EqualError(t, err, "dial tcp: connection refused")
}

func TestGeminiBackendBlockedPrompt(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}}
	_, err := newGeminiBackend(fake, "m").Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt blocked")
}

func TestGeminiBackendEmptyCandidates(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{}}
	text, err := newGeminiBackend(fake, "m").Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, text, "the orchestrator treats blank text as a failure")
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "  ")
	require.ErrorIs(t, err, audit.ErrMissingCredential)
	assert.Equal(t, 500, audit.StatusCode(err))
}

func TestNewGeminiBackendsPreservesOrder(t *testing.T) {
	client, err := NewGeminiClient(context.Background(), "test-key")
	require.NoError(t, err)

	backends := NewGeminiBackends(client, []string{"a", "b", "c"})
	require.Len(t, backends, 3)
	assert.Equal(t, []string{"a", "b", "c"}, NewOrchestrator(backends).Models())
}
