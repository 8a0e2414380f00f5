package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/Cstannahill/dataset-generator/types"
)

func entriesOf(n int) []types.DatasetEntry {
	entries := make([]types.DatasetEntry, n)
	for i := range entries {
		entries[i] = types.DatasetEntry{"instruction": "q", "output": "a"}
	}
	return entries
}

func TestResultCollector_FlattenAscending(t *testing.T) {
	collector := newResultCollector()
	collector.add(2, []types.DatasetEntry{{"instruction": "third"}})
	collector.add(0, []types.DatasetEntry{{"instruction": "first"}})
	collector.add(1, []types.DatasetEntry{{"instruction": "second"}})

	all := collector.flatten(3)

	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].String("instruction"))
	assert.Equal(t, "second", all[1].String("instruction"))
	assert.Equal(t, "third", all[2].String("instruction"))
}

func TestResultCollector_SkipsMissingBatches(t *testing.T) {
	collector := newResultCollector()
	collector.add(0, entriesOf(2))
	collector.add(3, entriesOf(1))

	all := collector.flatten(4)

	assert.Len(t, all, 3)
}

func TestResultCollector_OrderIndependentOfCompletionOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 20).Draw(rt, "total")
		order := rapid.Permutation(batchIDs(total)).Draw(rt, "order")

		collector := newResultCollector()
		for _, id := range order {
			collector.add(id, []types.DatasetEntry{{"batch": float64(id)}})
		}

		all := collector.flatten(total)
		if len(all) != total {
			rt.Fatalf("got %d entries, want %d", len(all), total)
		}
		for i, entry := range all {
			if entry["batch"] != float64(i) {
				rt.Fatalf("entry %d came from batch %v", i, entry["batch"])
			}
		}
	})
}

func batchIDs(total int) []int {
	ids := make([]int, total)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func TestProgressAggregator_CumulativeSnapshots(t *testing.T) {
	sink := make(chan types.ProgressUpdate, 16)
	agg := newProgressAggregator(3, sink, zap.NewNop())

	outcomes := make(chan types.BatchResult, 3)
	outcomes <- types.BatchResult{BatchID: 1, Entries: entriesOf(10), RetryCount: 0}
	outcomes <- types.BatchResult{BatchID: 0, Entries: entriesOf(10), RetryCount: 2}
	outcomes <- types.BatchResult{BatchID: 2, RetryCount: 3, Err: types.NewError(types.ErrRetriesExhausted, "all retries exhausted")}
	close(outcomes)

	agg.run(outcomes)
	close(sink)

	var updates []types.ProgressUpdate
	for update := range sink {
		updates = append(updates, update)
	}
	require.Len(t, updates, 3)

	// 成功批次报告批次号与累计条目数
	require.NotNil(t, updates[0].BatchCompleted)
	assert.Equal(t, 1, *updates[0].BatchCompleted)
	assert.Equal(t, 10, updates[0].EntriesGenerated)
	assert.Equal(t, 0, updates[0].ErrorsCount)

	require.NotNil(t, updates[1].BatchCompleted)
	assert.Equal(t, 0, *updates[1].BatchCompleted)
	assert.Equal(t, 20, updates[1].EntriesGenerated)
	assert.Equal(t, 2, updates[1].RetriesCount)

	// 失败批次不报告批次号，但计入错误与重试
	assert.Nil(t, updates[2].BatchCompleted)
	assert.Equal(t, 20, updates[2].EntriesGenerated)
	assert.Equal(t, 1, updates[2].ErrorsCount)
	assert.Equal(t, 5, updates[2].RetriesCount)
	assert.Equal(t, 0, updates[2].ConcurrentBatches)
}

func TestProgressAggregator_NilSink(t *testing.T) {
	agg := newProgressAggregator(1, nil, zap.NewNop())

	outcomes := make(chan types.BatchResult, 1)
	outcomes <- types.BatchResult{BatchID: 0, Entries: entriesOf(5)}
	close(outcomes)

	agg.run(outcomes)

	assert.Equal(t, 5, agg.entries)
	assert.Len(t, agg.collector.flatten(1), 5)
}

func TestProgressAggregator_FullSinkDoesNotBlock(t *testing.T) {
	sink := make(chan types.ProgressUpdate, 1)
	agg := newProgressAggregator(3, sink, zap.NewNop())

	outcomes := make(chan types.BatchResult, 3)
	for i := 0; i < 3; i++ {
		outcomes <- types.BatchResult{BatchID: i, Entries: entriesOf(1)}
	}
	close(outcomes)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.run(outcomes)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator blocked on full progress sink")
	}

	// 只有首条快照留在通道里，后续两条被丢弃
	assert.Len(t, sink, 1)
	assert.Equal(t, 3, agg.completed)
}
