package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/providers"
	"github.com/Cstannahill/dataset-generator/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(providers.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
	}, zap.NewNop())
}

func TestGenerate_Success(t *testing.T) {
	var gotReq chatCompletionRequest
	var gotAuth string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `[{"a": 1}]`}, "finish_reason": "stop"},
			},
		})
	})

	text, err := p.Generate(context.Background(), &providers.GenerateRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You create training data.",
		Prompt:       "generate 5 examples",
		MaxTokens:    4000,
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"a": 1}]`, text)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, 4000, gotReq.MaxTokens)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	p := NewOpenAIProvider(providers.OpenAIConfig{}, zap.NewNop())
	_, err := p.Generate(context.Background(), &providers.GenerateRequest{Model: "gpt-4o", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUnauthorized))
	assert.False(t, types.IsRetryable(err))
}

func TestGenerate_RateLimited(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	})

	_, err := p.Generate(context.Background(), &providers.GenerateRequest{Model: "gpt-4o", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrRateLimited))
	assert.True(t, types.IsRetryable(err))
}

func TestGenerate_NoChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "chatcmpl-2", "choices": []}`))
	})

	_, err := p.Generate(context.Background(), &providers.GenerateRequest{Model: "gpt-4o", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpstreamError))
}

func TestListModels_StaticCatalog(t *testing.T) {
	p := NewOpenAIProvider(providers.OpenAIConfig{APIKey: "sk-test"}, zap.NewNop())
	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, models)
	for _, m := range models {
		assert.Equal(t, types.ProviderOpenAI, m.Provider)
		assert.Contains(t, m.Capabilities, "text-generation")
	}
}
