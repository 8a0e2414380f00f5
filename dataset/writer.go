// Package dataset 负责生成结果的整理与导出。
// 条目被视为不透明 JSON 对象：导出前做去重与格式过滤，不改写内容。
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Cstannahill/dataset-generator/types"
)

// 支持的导出格式。
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// Writer 导出数据集条目。
type Writer struct {
	logger *zap.Logger
}

// NewWriter 创建数据集导出器。
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write 将条目写入 w。format 为 json 时输出单个缩进数组，
// jsonl 时每行一个对象。
func (d *Writer) Write(w io.Writer, entries []types.DatasetEntry, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatJSONL:
		bw := bufio.NewWriter(w)
		enc := json.NewEncoder(bw)
		for _, entry := range entries {
			if err := enc.Encode(entry); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return bw.Flush()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile 先整理（格式过滤 + 去重）再写入 dir 下带时间戳的文件，
// 返回完整路径。条目为空时返回错误。
func (d *Writer) WriteFile(dir string, entries []types.DatasetEntry, datasetFormat types.DatasetFormat, format string) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no dataset entries to export")
	}

	cleaned := Deduplicate(FilterByFormat(entries, datasetFormat))
	if dropped := len(entries) - len(cleaned); dropped > 0 {
		d.logger.Warn("entries excluded during export",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(cleaned)))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("dataset_%s_%s.%s", datasetFormat, time.Now().Format("20060102_150405"), format)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := d.Write(f, cleaned, format); err != nil {
		return "", err
	}

	d.logger.Info("dataset exported",
		zap.String("path", path),
		zap.Int("entries", len(cleaned)),
		zap.String("format", format))
	return path, nil
}

// FilterByFormat 剔除缺少格式必需字段的条目。目前只有检索格式
// 有硬性字段要求，其余格式原样通过。
func FilterByFormat(entries []types.DatasetEntry, format types.DatasetFormat) []types.DatasetEntry {
	if format != types.FormatRetrievalEmbedding {
		return entries
	}
	kept := make([]types.DatasetEntry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := entry["query"]; !ok {
			continue
		}
		if _, ok := entry["positive_passage"]; !ok {
			continue
		}
		if _, ok := entry["negative_passages"]; !ok {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// Deduplicate 按条目的 JSON 序列化结果去重，保留首次出现的条目。
func Deduplicate(entries []types.DatasetEntry) []types.DatasetEntry {
	seen := make(map[string]struct{}, len(entries))
	kept := make([]types.DatasetEntry, 0, len(entries))
	for _, entry := range entries {
		key, err := json.Marshal(entry)
		if err != nil {
			kept = append(kept, entry)
			continue
		}
		if _, dup := seen[string(key)]; dup {
			continue
		}
		seen[string(key)] = struct{}{}
		kept = append(kept, entry)
	}
	return kept
}

// Stats 是导出前的数据集统计。
type Stats struct {
	Count      int            `json:"count"`
	Duplicates int            `json:"duplicates"`
	FieldKeys  map[string]int `json:"field_keys"`
}

// Collect 统计条目总数、重复条目数与各字段出现次数。
func Collect(entries []types.DatasetEntry) Stats {
	stats := Stats{
		Count:     len(entries),
		FieldKeys: make(map[string]int),
	}
	stats.Duplicates = len(entries) - len(Deduplicate(entries))
	for _, entry := range entries {
		for key := range entry {
			stats.FieldKeys[key]++
		}
	}
	return stats
}
