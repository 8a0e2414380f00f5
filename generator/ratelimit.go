package generator

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/Cstannahill/dataset-generator/types"
)

// RateLimiter 对单个后端强制最小请求间隔。
// burst 固定为 1，因此相邻两次 Acquire 成功的间隔不小于 1s/rps。
// 等待基于截止时间而非短间隔轮询，取消时立即返回。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter 创建速率限制器，requestsPerSecond 必须为正。
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Acquire 阻塞直到获得一次请求许可。ctx 取消时不消耗许可，
// 立即返回 CANCELLED 错误。
func (l *RateLimiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return &types.Error{
			Code:    types.ErrCancelled,
			Message: "rate limiter wait interrupted",
			Cause:   err,
		}
	}
	return nil
}
