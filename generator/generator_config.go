package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cstannahill/dataset-generator/types"
)

// Config 并发生成引擎配置。
type Config struct {
	// 全局并发批次上限
	MaxConcurrentBatches int `json:"max_concurrent_batches"`
	// 单批次内并发请求上限
	MaxConcurrentRequestsPerBatch int `json:"max_concurrent_requests_per_batch"`
	// 各后端每秒请求数
	RequestsPerSecond map[types.ModelProvider]int `json:"requests_per_second"`
	// 最大重试次数（0 表示不重试）
	MaxRetries int `json:"max_retries"`
	// 重试间隔（固定间隔，不做指数退避）
	RetryDelay time.Duration `json:"retry_delay"`
	// 单次请求超时
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultConfig 返回默认引擎配置。
func DefaultConfig() Config {
	return Config{
		MaxConcurrentBatches:          4,
		MaxConcurrentRequestsPerBatch: 3,
		RequestsPerSecond: map[types.ModelProvider]int{
			types.ProviderOllama: 10,
			types.ProviderOpenAI: 60,
		},
		MaxRetries:     3,
		RetryDelay:     time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// Validate 校验引擎配置。
func (c Config) Validate() error {
	var errs []string

	if c.MaxConcurrentBatches <= 0 {
		errs = append(errs, "max_concurrent_batches must be positive")
	}
	if c.MaxConcurrentRequestsPerBatch <= 0 {
		errs = append(errs, "max_concurrent_requests_per_batch must be positive")
	}
	if len(c.RequestsPerSecond) == 0 {
		errs = append(errs, "requests_per_second must configure at least one backend")
	}
	for p, rps := range c.RequestsPerSecond {
		if rps <= 0 {
			errs = append(errs, fmt.Sprintf("requests_per_second[%s] must be positive", p))
		}
	}
	if c.MaxRetries < 0 {
		errs = append(errs, "max_retries must not be negative")
	}
	if c.RetryDelay < 0 {
		errs = append(errs, "retry_delay must not be negative")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "request_timeout must be positive")
	}

	if len(errs) > 0 {
		return &types.Error{
			Code:    types.ErrInvalidConfig,
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}
