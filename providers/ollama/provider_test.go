package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/providers"
	"github.com/Cstannahill/dataset-generator/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllamaProvider(providers.OllamaConfig{BaseURL: srv.URL}, zap.NewNop())
}

func TestGenerate_Success(t *testing.T) {
	var gotReq ollamaGenerateRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    gotReq.Model,
			Response: `[{"instruction": "i", "input": "", "output": "o"}]`,
			Done:     true,
		})
	})

	text, err := p.Generate(context.Background(), &providers.GenerateRequest{
		Model:       "llama3.2:3b",
		Prompt:      "generate things",
		Temperature: 0.7,
		TopP:        0.9,
		TopK:        40,
	})
	require.NoError(t, err)
	assert.Contains(t, text, "instruction")

	assert.Equal(t, "llama3.2:3b", gotReq.Model)
	assert.False(t, gotReq.Stream, "engine requires non-streaming responses")
	assert.InDelta(t, 0.7, gotReq.Options.Temperature, 1e-9)
	assert.Equal(t, 40, gotReq.Options.TopK)
}

func TestGenerate_ServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "model runner crashed"}`))
	})

	_, err := p.Generate(context.Background(), &providers.GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUpstreamError))
	assert.True(t, types.IsRetryable(err))
}

func TestGenerate_NotFoundIsNotRetryable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model not found"}`))
	})

	_, err := p.Generate(context.Background(), &providers.GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))
	assert.False(t, types.IsRetryable(err))
}

func TestGenerate_Cancellation(t *testing.T) {
	block := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Generate(ctx, &providers.GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCancelled))
	assert.Less(t, time.Since(start), 2*time.Second, "cancelled call must return promptly")
}

func TestListModels(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models": [
			{"name": "llama3.2:3b", "size": 2019393189, "modified_at": "2025-05-01T10:00:00Z"},
			{"name": "qwen2.5:7b", "size": 4431388000, "modified_at": "2025-06-11T08:30:00Z"}
		]}`))
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama3.2:3b", models[0].ID)
	assert.Equal(t, types.ProviderOllama, models[0].Provider)
}

func TestHealthCheck(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models": []}`))
	})

	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	down := NewOllamaProvider(providers.OllamaConfig{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	status, err = down.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
}
