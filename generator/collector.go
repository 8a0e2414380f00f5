package generator

import "github.com/Cstannahill/dataset-generator/types"

// resultCollector 按 BatchID 收集成功批次的条目。
// 仅由聚合协程单线程访问，无需加锁。
type resultCollector struct {
	results map[int][]types.DatasetEntry
}

func newResultCollector() *resultCollector {
	return &resultCollector{results: make(map[int][]types.DatasetEntry)}
}

// add 记录一个成功批次的条目。同一 BatchID 至多写入一次
// （RetryExecutor 保证每个任务恰好产生一个终态结果）。
func (c *resultCollector) add(batchID int, entries []types.DatasetEntry) {
	c.results[batchID] = entries
}

// flatten 按 BatchID 升序拼接全部条目。缺失的批次（失败或取消）
// 不贡献条目，静默跳过——无论批次以何种顺序完成，输出顺序恒定。
func (c *resultCollector) flatten(totalBatches int) []types.DatasetEntry {
	all := make([]types.DatasetEntry, 0, len(c.results)*8)
	for i := 0; i < totalBatches; i++ {
		if entries, ok := c.results[i]; ok {
			all = append(all, entries...)
		}
	}
	return all
}
