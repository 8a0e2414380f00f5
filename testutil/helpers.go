// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	testutil.AssertEventuallyTrue(t, func() bool { return condition }, 5*time.Second)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Cstannahill/dataset-generator/types"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertEntriesEqual 断言两个数据集条目切片的 JSON 表示相等
func AssertEntriesEqual(t *testing.T, expected, actual []types.DatasetEntry) {
	t.Helper()

	if len(expected) != len(actual) {
		t.Errorf("entry count mismatch: expected %d, got %d", len(expected), len(actual))
		return
	}

	for i := range expected {
		expectedJSON, err := json.Marshal(expected[i])
		if err != nil {
			t.Fatalf("failed to marshal expected entry %d: %v", i, err)
		}
		actualJSON, err := json.Marshal(actual[i])
		if err != nil {
			t.Fatalf("failed to marshal actual entry %d: %v", i, err)
		}
		if string(expectedJSON) != string(actualJSON) {
			t.Errorf("entry[%d] mismatch:\nexpected: %s\nactual: %s", i, expectedJSON, actualJSON)
		}
	}
}

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("condition did not become true within %v", timeout)
}

// =============================================================================
// 📦 数据辅助
// =============================================================================

// MustJSON 序列化值为 JSON 字符串，失败时 panic（仅测试使用）
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// MustParseEntries 将 JSON 数组解析为数据集条目，失败时 panic（仅测试使用）
func MustParseEntries(raw string) []types.DatasetEntry {
	var entries []types.DatasetEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		panic(err)
	}
	return entries
}
