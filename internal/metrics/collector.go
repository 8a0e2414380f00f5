// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 生成请求指标
	generateRequestsTotal   *prometheus.CounterVec
	generateRequestDuration *prometheus.HistogramVec

	// 批次指标
	batchesTotal    *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	batchesInFlight prometheus.Gauge

	// 数据集指标
	entriesGenerated prometheus.Counter
	retriesTotal     prometheus.Counter

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 生成请求指标
	c.generateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_requests_total",
			Help:      "Total number of backend generate requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.generateRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_request_duration_seconds",
			Help:      "Backend generate request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	// 批次指标
	c.batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of finalized batches",
		},
		[]string{"provider", "status"}, // status: succeeded, failed, cancelled
	)

	c.batchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch execution duration in seconds, retries included",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	c.batchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batches_in_flight",
			Help:      "Number of batches currently holding an execution permit",
		},
	)

	// 数据集指标
	c.entriesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_generated_total",
			Help:      "Total number of dataset entries generated",
		},
	)

	c.retriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of batch retries",
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 指标记录
// =============================================================================

// RecordGenerateRequest 记录一次后端生成请求
func (c *Collector) RecordGenerateRequest(provider, model, status string, duration time.Duration) {
	c.generateRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.generateRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordBatch 记录一个批次的终态
func (c *Collector) RecordBatch(provider, status string, duration time.Duration, entries, retries int) {
	c.batchesTotal.WithLabelValues(provider, status).Inc()
	c.batchDuration.WithLabelValues(provider).Observe(duration.Seconds())
	c.entriesGenerated.Add(float64(entries))
	c.retriesTotal.Add(float64(retries))
}

// IncBatchesInFlight 批次获得执行许可
func (c *Collector) IncBatchesInFlight() {
	c.batchesInFlight.Inc()
}

// DecBatchesInFlight 批次释放执行许可
func (c *Collector) DecBatchesInFlight() {
	c.batchesInFlight.Dec()
}
