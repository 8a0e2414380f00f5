package types

import (
	"time"

	"github.com/google/uuid"
)

// GenerationConfig 是一次生成运行的用户输入：
// 目标条目总数、单批大小、模型与微调目标描述。
type GenerationConfig struct {
	TargetEntries  int           `json:"target_entries" yaml:"target_entries"`
	BatchSize      int           `json:"batch_size" yaml:"batch_size"`
	SelectedModel  string        `json:"selected_model" yaml:"selected_model"`
	Provider       ModelProvider `json:"provider" yaml:"provider"`
	FineTuningGoal string        `json:"fine_tuning_goal" yaml:"fine_tuning_goal"`
	DomainContext  string        `json:"domain_context" yaml:"domain_context"`
	Format         DatasetFormat `json:"format" yaml:"format"`
}

// GenerationTask 是一个批次的全部输入，运行开始前构造，之后不可变。
// BatchID 在 [0, totalBatches) 上稠密且唯一，决定最终结果的拼接顺序。
type GenerationTask struct {
	ID                string        `json:"id"`
	BatchID           int           `json:"batch_id"`
	EntriesToGenerate int           `json:"entries_to_generate"`
	ModelID           string        `json:"model_id"`
	Provider          ModelProvider `json:"provider"`
	Goal              string        `json:"goal"`
	Context           string        `json:"context"`
	Format            DatasetFormat `json:"format"`
}

// PlanTasks 将 GenerationConfig 切分为稠密编号的任务列表。
// 每批 BatchSize 条，末批吸收余数；各批条目数之和恰为 TargetEntries。
func PlanTasks(cfg GenerationConfig) []GenerationTask {
	if cfg.TargetEntries <= 0 || cfg.BatchSize <= 0 {
		return nil
	}

	total := cfg.TargetEntries / cfg.BatchSize
	if total == 0 {
		total = 1
	}

	tasks := make([]GenerationTask, 0, total)
	remaining := cfg.TargetEntries
	for i := 0; i < total; i++ {
		n := cfg.BatchSize
		if i == total-1 {
			n = remaining // 末批吸收余数
		}
		tasks = append(tasks, GenerationTask{
			ID:                uuid.NewString(),
			BatchID:           i,
			EntriesToGenerate: n,
			ModelID:           cfg.SelectedModel,
			Provider:          cfg.Provider,
			Goal:              cfg.FineTuningGoal,
			Context:           cfg.DomainContext,
			Format:            cfg.Format,
		})
		remaining -= cfg.BatchSize
	}
	return tasks
}

// BatchResult 是 RetryExecutor 对单个任务的唯一终态产物。
// Err 为 nil 时 Entries 有效；否则该批次不贡献任何条目。
type BatchResult struct {
	BatchID        int            `json:"batch_id"`
	Entries        []DatasetEntry `json:"entries,omitempty"`
	GenerationTime time.Duration  `json:"generation_time"`
	RetryCount     int            `json:"retry_count"`
	Err            error          `json:"-"`
}

// ProgressUpdate 是每个批次终态后发出的一次累计快照。
// 快照是值语义：消费方收到的是不可变副本而非共享状态。
type ProgressUpdate struct {
	BatchCompleted    *int    `json:"batch_completed,omitempty"`
	EntriesGenerated  int     `json:"entries_generated"`
	ErrorsCount       int     `json:"errors_count"`
	RetriesCount      int     `json:"retries_count"`
	ConcurrentBatches int     `json:"concurrent_batches"`
	EntriesPerSecond  float64 `json:"entries_per_second"`
}
