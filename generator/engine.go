package generator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Cstannahill/dataset-generator/internal/metrics"
	"github.com/Cstannahill/dataset-generator/prompt"
	"github.com/Cstannahill/dataset-generator/providers"
	"github.com/Cstannahill/dataset-generator/types"
)

// Engine 是并发数据集生成引擎。配置与依赖在构造后不可变，
// 可安全地被多次 Run 并发复用；每次 Run 的可变状态都是调用局部的。
type Engine struct {
	cfg      Config
	registry *providers.Registry
	limiters map[types.ModelProvider]*RateLimiter
	parser   *Parser
	prompts  *prompt.Builder
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
}

// Option 配置 Engine 的可选依赖。
type Option func(*Engine)

// WithMetrics 启用 Prometheus 指标上报。
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithPromptBuilder 覆盖默认提示词构造器。
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(e *Engine) { e.prompts = b }
}

// NewEngine 创建生成引擎。每个配置了速率的后端获得独立的限流器。
func NewEngine(cfg Config, registry *providers.Registry, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limiters := make(map[types.ModelProvider]*RateLimiter, len(cfg.RequestsPerSecond))
	for p, rps := range cfg.RequestsPerSecond {
		limiters[p] = NewRateLimiter(rps)
	}

	e := &Engine{
		cfg:      cfg,
		registry: registry,
		limiters: limiters,
		parser:   NewParser(logger),
		prompts:  &prompt.Builder{},
		logger:   logger,
		tracer:   otel.Tracer("generator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run 执行一次完整的生成运行。tasks 的 BatchID 决定最终拼接顺序；
// progress 接收每个批次终态后的累计快照（可为 nil）。
// 返回按 BatchID 升序拼接的条目列表；批次失败或被取消时结果是
// 部分的，但 Run 不因此返回错误。
func (e *Engine) Run(ctx context.Context, tasks []types.GenerationTask, progress chan<- types.ProgressUpdate) ([]types.DatasetEntry, error) {
	total := len(tasks)
	if total == 0 {
		return nil, nil
	}

	ctx, span := e.tracer.Start(ctx, "generator.Run",
		trace.WithAttributes(attribute.Int("total_batches", total)))
	defer span.End()

	e.logger.Info("generation run starting",
		zap.Int("total_batches", total),
		zap.Int("max_concurrent_batches", e.cfg.MaxConcurrentBatches))

	// 终态事件按任务数缓冲：生产者永不阻塞于消费者
	outcomes := make(chan types.BatchResult, total)
	agg := newProgressAggregator(total, progress, e.logger)
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		agg.run(outcomes)
	}()

	sem := semaphore.NewWeighted(int64(e.cfg.MaxConcurrentBatches))

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task types.GenerationTask) {
			defer wg.Done()
			outcomes <- e.runTask(ctx, task, sem)
		}(task)
	}

	wg.Wait()
	close(outcomes)
	<-aggDone

	result := agg.collector.flatten(total)
	e.logger.Info("generation run finished",
		zap.Int("total_batches", total),
		zap.Int("entries", len(result)),
		zap.Int("errors", agg.errors),
		zap.Int("retries", agg.retries))
	return result, nil
}

// runTask 为单个任务获取并发许可并执行重试状态机。
// 许可获取前后各检查一次取消；许可在终态产生后无条件释放。
func (e *Engine) runTask(ctx context.Context, task types.GenerationTask, sem *semaphore.Weighted) types.BatchResult {
	if err := sem.Acquire(ctx, 1); err != nil {
		return cancelledResult(task.BatchID, 0)
	}
	defer sem.Release(1)

	if ctx.Err() != nil {
		return cancelledResult(task.BatchID, 0)
	}

	if e.metrics != nil {
		e.metrics.IncBatchesInFlight()
		defer e.metrics.DecBatchesInFlight()
	}

	result := e.executeWithRetries(ctx, task)

	if e.metrics != nil {
		e.metrics.RecordBatch(string(task.Provider), batchStatus(result), result.GenerationTime, len(result.Entries), result.RetryCount)
	}
	return result
}

// executeWithRetries 执行单批次的重试状态机。
// 失败后固定间隔重试；取消在每次尝试前与重试休眠中均被检查。
func (e *Engine) executeWithRetries(ctx context.Context, task types.GenerationTask) types.BatchResult {
	ctx, span := e.tracer.Start(ctx, "generator.batch",
		trace.WithAttributes(
			attribute.Int("batch_id", task.BatchID),
			attribute.Int("entries_to_generate", task.EntriesToGenerate),
			attribute.String("provider", string(task.Provider)),
		))
	defer span.End()

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return cancelledResult(task.BatchID, attempt)
		}

		entries, err := e.executeBatch(ctx, task)
		if err == nil {
			return types.BatchResult{
				BatchID:        task.BatchID,
				Entries:        entries,
				GenerationTime: time.Since(start),
				RetryCount:     attempt,
			}
		}

		if ctx.Err() != nil || types.IsCode(err, types.ErrCancelled) {
			return cancelledResult(task.BatchID, attempt)
		}

		lastErr = err
		if attempt < e.cfg.MaxRetries {
			e.logger.Warn("batch attempt failed, retrying",
				zap.Int("batch_id", task.BatchID),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", e.cfg.MaxRetries),
				zap.Duration("retry_delay", e.cfg.RetryDelay),
				zap.Error(err))

			select {
			case <-time.After(e.cfg.RetryDelay):
			case <-ctx.Done():
				return cancelledResult(task.BatchID, attempt)
			}
		}
	}

	return types.BatchResult{
		BatchID:        task.BatchID,
		GenerationTime: time.Since(start),
		RetryCount:     e.cfg.MaxRetries,
		Err: &types.Error{
			Code:     types.ErrRetriesExhausted,
			Message:  "all retries exhausted",
			Attempts: e.cfg.MaxRetries + 1,
			Cause:    lastErr,
		},
	}
}

// executeBatch 并发执行一个批次的全部子请求。
// 任一子请求失败即放弃整次尝试——跨尝试不保留部分子批次结果。
// 成功时按切分顺序拼接，保证尝试内的确定性。
func (e *Engine) executeBatch(ctx context.Context, task types.GenerationTask) ([]types.DatasetEntry, error) {
	sizes := SplitSubBatches(task.EntriesToGenerate, e.cfg.MaxConcurrentRequestsPerBatch)

	results := make([][]types.DatasetEntry, len(sizes))
	g, gctx := errgroup.WithContext(ctx)
	for i, size := range sizes {
		i, size := i, size
		g.Go(func() error {
			entries, err := e.generateSubBatch(gctx, task, size)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]types.DatasetEntry, 0, task.EntriesToGenerate)
	for _, entries := range results {
		all = append(all, entries...)
	}
	return all, nil
}

// generateSubBatch 执行一次限流后的后端调用并解析结果。
func (e *Engine) generateSubBatch(ctx context.Context, task types.GenerationTask, size int) ([]types.DatasetEntry, error) {
	limiter, ok := e.limiters[task.Provider]
	if !ok {
		return nil, &types.Error{
			Code:    types.ErrInvalidConfig,
			Message: "no rate limit configured for provider " + string(task.Provider),
		}
	}
	if err := limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, &types.Error{Code: types.ErrCancelled, Message: "generation cancelled", Cause: ctx.Err()}
	}

	prov, err := e.registry.Get(task.Provider)
	if err != nil {
		return nil, &types.Error{Code: types.ErrInvalidConfig, Message: "provider lookup failed", Cause: err}
	}

	req := &providers.GenerateRequest{
		Model:        task.ModelID,
		SystemPrompt: e.prompts.System(),
		Prompt:       e.prompts.Build(task.Goal, task.Context, size, task.Format),
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	raw, err := prov.Generate(reqCtx, req)
	elapsed := time.Since(start)

	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordGenerateRequest(string(task.Provider), task.ModelID, status, elapsed)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, &types.Error{Code: types.ErrCancelled, Message: "generation cancelled", Cause: ctx.Err()}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// 单请求超时：父上下文仍然存活，按可重试的后端超时处理
			return nil, &types.Error{
				Code:      types.ErrUpstreamTimeout,
				Message:   "generate request timed out",
				Retryable: true,
				Provider:  string(task.Provider),
				Cause:     err,
			}
		}
		return nil, err
	}

	return e.parser.Parse(raw, size), nil
}

func cancelledResult(batchID, retries int) types.BatchResult {
	return types.BatchResult{
		BatchID:    batchID,
		RetryCount: retries,
		Err:        types.NewError(types.ErrCancelled, "generation cancelled"),
	}
}

func batchStatus(r types.BatchResult) string {
	switch {
	case r.Err == nil:
		return "succeeded"
	case types.IsCode(r.Err, types.ErrCancelled):
		return "cancelled"
	default:
		return "failed"
	}
}
