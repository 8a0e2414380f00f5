package generator

import (
	"time"

	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/types"
)

// progressAggregator 是批次终态事件的唯一消费者。
// 所有累计计数与结果集都只在 run 协程内变更，进度以值快照外发，
// 因此消费方永远看到一致的状态。
type progressAggregator struct {
	total     int
	start     time.Time
	collector *resultCollector
	sink      chan<- types.ProgressUpdate
	logger    *zap.Logger

	completed int
	entries   int
	errors    int
	retries   int
}

func newProgressAggregator(total int, sink chan<- types.ProgressUpdate, logger *zap.Logger) *progressAggregator {
	return &progressAggregator{
		total:     total,
		start:     time.Now(),
		collector: newResultCollector(),
		sink:      sink,
		logger:    logger,
	}
}

// run 消费终态事件直到通道关闭。生产者先于消费者结束时，
// 缓冲中的事件仍会被完整处理。
func (a *progressAggregator) run(outcomes <-chan types.BatchResult) {
	for outcome := range outcomes {
		a.observe(outcome)
	}
}

func (a *progressAggregator) observe(outcome types.BatchResult) {
	a.completed++
	a.retries += outcome.RetryCount

	update := types.ProgressUpdate{
		EntriesGenerated:  a.entries,
		ErrorsCount:       a.errors,
		RetriesCount:      a.retries,
		ConcurrentBatches: a.total - a.completed,
	}

	if outcome.Err != nil {
		a.errors++
		update.ErrorsCount = a.errors
		a.logger.Warn("batch finalized with error",
			zap.Int("batch_id", outcome.BatchID),
			zap.Int("retry_count", outcome.RetryCount),
			zap.Error(outcome.Err))
	} else {
		a.entries += len(outcome.Entries)
		a.collector.add(outcome.BatchID, outcome.Entries)
		id := outcome.BatchID
		update.BatchCompleted = &id
		update.EntriesGenerated = a.entries
		a.logger.Info("batch completed",
			zap.Int("batch_id", outcome.BatchID),
			zap.Int("entries", len(outcome.Entries)),
			zap.Duration("generation_time", outcome.GenerationTime),
			zap.Int("retry_count", outcome.RetryCount))
	}

	if elapsed := time.Since(a.start).Seconds(); elapsed > 0 {
		update.EntriesPerSecond = float64(a.entries) / elapsed
	}

	a.emit(update)
}

// emit 将快照送往调用方的进度通道。通道已满时丢弃本条快照而非
// 阻塞聚合：进度是监控信号，最终结果不依赖它。
func (a *progressAggregator) emit(update types.ProgressUpdate) {
	if a.sink == nil {
		return
	}
	select {
	case a.sink <- update:
	default:
		a.logger.Debug("progress sink full, dropping update")
	}
}
