package generator

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/types"
)

// Parser 从模型的自由文本输出中提取结构化条目。
// 解析失败不会中断生成：退化为确定性的编号占位条目。
type Parser struct {
	logger *zap.Logger
}

// NewParser 创建响应解析器。
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse 在 raw 中定位首个 '[' 与末个 ']'，将其间的子串解码为
// 条目数组。解码失败或数组为空时，返回恰好 expectedCount 个
// 占位条目，从不返回错误。
func (p *Parser) Parse(raw string, expectedCount int) []types.DatasetEntry {
	text := extractJSONArray(raw)

	var entries []types.DatasetEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		p.logger.Warn("failed to parse generated JSON, using fallback entries",
			zap.Error(err),
			zap.Int("expected_count", expectedCount))
		return fallbackEntries(expectedCount)
	}
	if len(entries) == 0 {
		p.logger.Warn("parsed entry array is empty, using fallback entries",
			zap.Int("expected_count", expectedCount))
		return fallbackEntries(expectedCount)
	}

	p.logger.Debug("parsed generated entries",
		zap.Int("count", len(entries)),
		zap.Int("expected_count", expectedCount))
	return entries
}

// extractJSONArray 截取 raw 中首个 '[' 到末个 ']' 的子串，
// 用于剥离模型在数组前后附加的说明文字。
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	if start < 0 {
		return raw
	}
	end := strings.LastIndex(raw, "]")
	if end < start {
		return raw
	}
	return raw[start : end+1]
}

func fallbackEntries(count int) []types.DatasetEntry {
	entries := make([]types.DatasetEntry, count)
	for i := range entries {
		entries[i] = types.FallbackEntry(i + 1)
	}
	return entries
}
