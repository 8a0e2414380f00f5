package ollama

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

// OllamaProvider 实现本地 Ollama 服务的生成后端。
// Ollama 与托管 API 的差异：
// 1. 无认证，直接访问本地端口
// 2. /api/generate 接收单个 prompt 而非 messages 数组
// 3. 采样参数置于 options 对象内
// 4. 模型列表来自 /api/tags，由本地已拉取的模型决定
type OllamaProvider struct {
	cfg    providers.OllamaConfig
	client *http.Client
	logger *zap.Logger
}

// NewOllamaProvider 创建 Ollama Provider。
func NewOllamaProvider(cfg providers.OllamaConfig, logger *zap.Logger) *OllamaProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second // 本地推理可能较慢
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Identity() types.ModelProvider { return types.ProviderOllama }

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate 执行一次非流式生成调用，返回模型的原始文本输出。
func (p *OllamaProvider) Generate(ctx context.Context, req *providers.GenerateRequest) (string, error) {
	body := ollamaGenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: pick(req.Temperature, p.cfg.Temperature),
			TopP:        pick(req.TopP, p.cfg.TopP),
			TopK:        pickInt(req.TopK, p.cfg.TopK),
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &types.Error{Code: types.ErrInvalidRequest, Message: "marshal ollama request", Provider: p.Name(), Cause: err}
	}

	endpoint := fmt.Sprintf("%s/api/generate", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &types.Error{Code: types.ErrInvalidRequest, Message: "build ollama request", Provider: p.Name(), Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", &types.Error{Code: types.ErrCancelled, Message: "ollama request cancelled", Provider: p.Name(), Cause: ctx.Err()}
		}
		return "", &types.Error{Code: types.ErrUpstreamError, Message: "ollama request failed", Retryable: true, Provider: p.Name(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrMsg(resp.Body)
		p.logger.Warn("ollama api error",
			zap.Int("status", resp.StatusCode),
			zap.String("model", req.Model),
			zap.String("msg", msg))
		return "", providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &types.Error{Code: types.ErrUpstreamError, Message: "decode ollama response", Retryable: true, Provider: p.Name(), Cause: err}
	}

	p.logger.Debug("ollama response received",
		zap.String("model", out.Model),
		zap.Int("chars", len(out.Response)))

	return out.Response, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string `json:"name"`
		Size       int64  `json:"size"`
		ModifiedAt string `json:"modified_at"`
	} `json:"models"`
}

// ListModels 返回本地已安装的模型列表。
func (p *OllamaProvider) ListModels(ctx context.Context) ([]types.Model, error) {
	endpoint := fmt.Sprintf("%s/api/tags", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &types.Error{Code: types.ErrUpstreamError, Message: "ollama service unreachable", Provider: p.Name(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, providers.MapHTTPError(resp.StatusCode, providers.ReadErrMsg(resp.Body), p.Name())
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, err
	}

	models := make([]types.Model, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, types.Model{
			ID:           m.Name,
			Name:         m.Name,
			Size:         fmt.Sprintf("%d", m.Size),
			Modified:     m.ModifiedAt,
			Provider:     types.ProviderOllama,
			Capabilities: []string{"text-generation"},
		})
	}
	return models, nil
}

// HealthCheck 探测本地服务是否可达。
func (p *OllamaProvider) HealthCheck(ctx context.Context) (*providers.HealthStatus, error) {
	start := time.Now()
	_, err := p.ListModels(ctx)
	latency := time.Since(start)
	if err != nil {
		return &providers.HealthStatus{Healthy: false, Latency: latency}, err
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
