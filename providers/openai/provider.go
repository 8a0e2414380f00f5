package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/providers"
	"github.com/Cstannahill/dataset-generator/types"
)

// OpenAIProvider 实现 OpenAI Chat Completions 的生成后端。
type OpenAIProvider struct {
	cfg    providers.OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAIProvider 创建 OpenAI Provider。
func NewOpenAIProvider(cfg providers.OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}

	return &OpenAIProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Identity() types.ModelProvider { return types.ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (p *OpenAIProvider) buildHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if p.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.cfg.Organization)
	}
}

// Generate 执行一次 Chat Completions 调用，返回首个 choice 的文本内容。
func (p *OpenAIProvider) Generate(ctx context.Context, req *providers.GenerateRequest) (string, error) {
	if p.cfg.APIKey == "" {
		return "", &types.Error{
			Code:     types.ErrUnauthorized,
			Message:  "OpenAI API key not configured; set it in config or the OPENAI_API_KEY environment variable",
			Provider: p.Name(),
		}
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: pick(req.Temperature, p.cfg.Temperature),
		MaxTokens:   pickInt(req.MaxTokens, p.cfg.MaxTokens),
		TopP:        req.TopP,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &types.Error{Code: types.ErrInvalidRequest, Message: "marshal openai request", Provider: p.Name(), Cause: err}
	}

	endpoint := fmt.Sprintf("%s/v1/chat/completions", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &types.Error{Code: types.ErrInvalidRequest, Message: "build openai request", Provider: p.Name(), Cause: err}
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", &types.Error{Code: types.ErrCancelled, Message: "openai request cancelled", Provider: p.Name(), Cause: ctx.Err()}
		}
		return "", &types.Error{Code: types.ErrUpstreamError, Message: "openai request failed", Retryable: true, Provider: p.Name(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrMsg(resp.Body)
		p.logger.Warn("openai api error",
			zap.Int("status", resp.StatusCode),
			zap.String("model", req.Model),
			zap.String("msg", msg))
		return "", providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &types.Error{Code: types.ErrUpstreamError, Message: "decode openai response", Retryable: true, Provider: p.Name(), Cause: err}
	}

	if len(out.Choices) == 0 {
		return "", &types.Error{Code: types.ErrUpstreamError, Message: "openai response has no choices", Retryable: true, Provider: p.Name()}
	}

	return out.Choices[0].Message.Content, nil
}

// ListModels 返回支持的 OpenAI 模型清单。
// 托管端不提供按能力过滤的目录，这里维护一个静态列表。
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]types.Model, error) {
	return []types.Model{
		{
			ID:       "gpt-4.1-nano",
			Name:     "GPT-4.1-nano",
			Size:     "nano",
			Modified: "2025",
			Provider: types.ProviderOpenAI,
			Capabilities: []string{
				"text-generation", "instruction-following", "fast-inference",
			},
		},
		{
			ID:       "gpt-4o",
			Name:     "GPT-4o",
			Size:     "multimodal",
			Modified: "2024",
			Provider: types.ProviderOpenAI,
			Capabilities: []string{
				"text-generation", "instruction-following", "multimodal",
			},
		},
		{
			ID:       "gpt-4o-mini",
			Name:     "GPT-4o-mini",
			Size:     "efficient",
			Modified: "2024",
			Provider: types.ProviderOpenAI,
			Capabilities: []string{
				"text-generation", "instruction-following", "fast-inference",
			},
		},
		{
			ID:       "gpt-4.1-mini",
			Name:     "GPT-4.1-mini",
			Size:     "mini",
			Modified: "2025",
			Provider: types.ProviderOpenAI,
			Capabilities: []string{
				"text-generation", "instruction-following", "enhanced-reasoning",
			},
		},
	}, nil
}

// HealthCheck 通过 /v1/models 探测密钥与连通性。
func (p *OpenAIProvider) HealthCheck(ctx context.Context) (*providers.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &providers.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrMsg(resp.Body)
		return &providers.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("openai health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &providers.HealthStatus{Healthy: true, Latency: latency}, nil
}

func pick(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

func pickInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
