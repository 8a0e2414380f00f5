package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Cstannahill/dataset-generator/types"
)

// GenerateRequest 是一次文本生成调用的全部输入。
// 引擎对所有后端使用同一请求结构，后端负责转换为各自的协议。
type GenerateRequest struct {
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Prompt       string  `json:"prompt"`
	Temperature  float64 `json:"temperature,omitempty"`
	TopP         float64 `json:"top_p,omitempty"`
	TopK         int     `json:"top_k,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

// HealthStatus 表示后端健康检查结果。
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider 是生成后端的统一抽象。Generate 返回模型的原始文本输出，
// 结构化解析由调用方完成。实现必须尊重 ctx 取消：取消后立即返回，
// 在途的 HTTP 请求由传输层尽力中止。
type Provider interface {
	Name() string
	Identity() types.ModelProvider
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
	ListModels(ctx context.Context) ([]types.Model, error)
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// Registry 按后端标识保存 Provider 实例。
type Registry struct {
	mu        sync.RWMutex
	providers map[types.ModelProvider]Provider
}

// NewRegistry 创建空的 Provider 注册表。
func NewRegistry() *Registry {
	return &Registry{providers: make(map[types.ModelProvider]Provider)}
}

// Register 注册一个 Provider，重复注册时覆盖。
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Identity()] = p
}

// Get 返回指定标识的 Provider。
func (r *Registry) Get(id types.ModelProvider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %q not registered", id)
	}
	return p, nil
}

// Identities 返回已注册的后端标识。
func (r *Registry) Identities() []types.ModelProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]types.ModelProvider, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
