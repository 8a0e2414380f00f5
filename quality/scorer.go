// Package quality 对生成的数据集条目做启发式质量评估。
// 评估是纯函数式的：不访问网络，不依赖模型，同一输入总是产生相同分数。
package quality

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cstannahill/dataset-generator/types"
)

// QualityScore 是单条目的质量评估结果。各子分数取值 [0,1]。
type QualityScore struct {
	OverallScore          float64  `json:"overall_score"`
	RelevanceScore        float64  `json:"relevance_score"`
	CoherenceScore        float64  `json:"coherence_score"`
	CompletenessScore     float64  `json:"completeness_score"`
	FormatComplianceScore float64  `json:"format_compliance_score"`
	Issues                []string `json:"issues"`
	Tags                  []string `json:"tags"`
}

// ValidatedEntry 将条目与其质量评估及元数据绑定。
type ValidatedEntry struct {
	Entry    types.DatasetEntry `json:"entry"`
	Score    QualityScore       `json:"quality_score"`
	Metadata EntryMetadata      `json:"metadata"`
}

// EntryMetadata 是条目的验证元数据。ContentHash 用于去重。
type EntryMetadata struct {
	UseCase       string              `json:"use_case"`
	DatasetFormat types.DatasetFormat `json:"dataset_format"`
	ContentHash   string              `json:"content_hash"`
}

// ValidationConfig 质量验证配置。
type ValidationConfig struct {
	MinQualityScore float64 `json:"min_quality_score" yaml:"min_quality_score"`
	Enabled         bool    `json:"enabled" yaml:"enabled"`
}

// DefaultValidationConfig 返回默认验证配置。
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinQualityScore: 0.7,
		Enabled:         true,
	}
}

// requiredFields 各数据集格式的必填字段。
var requiredFields = map[types.DatasetFormat][]string{
	types.FormatAlpaca:             {"instruction", "output"},
	types.FormatConversation:       {"messages"},
	types.FormatChainOfThought:     {"question", "answer"},
	types.FormatPreferenceRanking:  {"prompt", "chosen", "rejected"},
	types.FormatFunctionCall:       {"messages", "function"},
	types.FormatMultiRoundDialogue: {"instruction", "conversation"},
	types.FormatCodeTask:           {"prompt", "code", "output"},
	types.FormatReflection:         {"instruction", "output", "reflection", "corrected"},
	types.FormatRetrievalEmbedding: {"query", "positive_passage", "negative_passages"},
	types.FormatReranking:          {"query", "documents", "relevance_scores"},
}

// Score 评估单个条目。useCase 是微调目标描述，用于相关性评分。
func Score(entry types.DatasetEntry, useCase string, format types.DatasetFormat) QualityScore {
	var issues []string

	completeness, missing := scoreCompleteness(entry, format)
	for _, field := range missing {
		issues = append(issues, fmt.Sprintf("missing required field: %s", field))
	}

	compliance := scoreFormatCompliance(entry, format)
	if compliance < 1 {
		issues = append(issues, "field types do not match the dataset format")
	}

	coherence, coherenceIssues := scoreCoherence(entry)
	issues = append(issues, coherenceIssues...)

	relevance := scoreRelevance(entry, useCase)
	if relevance < 0.3 {
		issues = append(issues, "content shows little overlap with the fine-tuning objective")
	}

	overall := (relevance + coherence + completeness + compliance) / 4

	return QualityScore{
		OverallScore:          overall,
		RelevanceScore:        relevance,
		CoherenceScore:        coherence,
		CompletenessScore:     completeness,
		FormatComplianceScore: compliance,
		Issues:                issues,
		Tags:                  entryTags(entry, format),
	}
}

// Validate 评估一批条目并过滤低分项。保留 OverallScore > cfg.MinQualityScore
// 的条目；cfg.Enabled 为 false 时全部保留且不评分。
func Validate(entries []types.DatasetEntry, useCase string, format types.DatasetFormat, cfg ValidationConfig) []ValidatedEntry {
	validated := make([]ValidatedEntry, 0, len(entries))
	for _, entry := range entries {
		meta := EntryMetadata{
			UseCase:       useCase,
			DatasetFormat: format,
			ContentHash:   ContentHash(entry),
		}
		if !cfg.Enabled {
			validated = append(validated, ValidatedEntry{Entry: entry, Metadata: meta})
			continue
		}
		score := Score(entry, useCase, format)
		if score.OverallScore > cfg.MinQualityScore {
			validated = append(validated, ValidatedEntry{Entry: entry, Score: score, Metadata: meta})
		}
	}
	return validated
}

// ContentHash 计算条目内容的 SHA-256 摘要（base64 编码），用于去重。
func ContentHash(entry types.DatasetEntry) string {
	content, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func scoreCompleteness(entry types.DatasetEntry, format types.DatasetFormat) (float64, []string) {
	fields, ok := requiredFields[format]
	if !ok {
		fields = requiredFields[types.FormatAlpaca]
	}

	var missing []string
	present := 0
	for _, field := range fields {
		if v, ok := entry[field]; ok && !isEmptyValue(v) {
			present++
		} else {
			missing = append(missing, field)
		}
	}
	return float64(present) / float64(len(fields)), missing
}

func scoreFormatCompliance(entry types.DatasetEntry, format types.DatasetFormat) float64 {
	// 结构化字段必须是数组
	arrayFields := map[types.DatasetFormat][]string{
		types.FormatConversation:       {"messages"},
		types.FormatFunctionCall:       {"messages"},
		types.FormatMultiRoundDialogue: {"conversation"},
		types.FormatRetrievalEmbedding: {"negative_passages"},
		types.FormatReranking:          {"documents", "relevance_scores"},
	}

	fields := arrayFields[format]
	if len(fields) == 0 {
		return 1
	}
	compliant := 0
	for _, field := range fields {
		if _, ok := entry[field].([]any); ok {
			compliant++
		}
	}
	return float64(compliant) / float64(len(fields))
}

func scoreCoherence(entry types.DatasetEntry) (float64, []string) {
	var issues []string
	score := 1.0

	text := flattenText(entry)
	if len(text) < 20 {
		score -= 0.5
		issues = append(issues, "entry content is too short to be a useful training example")
	}

	// 指令与输出完全相同通常说明模型在重复输入
	instruction := entry.String("instruction")
	output := entry.String("output")
	if instruction != "" && instruction == output {
		score -= 0.5
		issues = append(issues, "instruction and output are identical")
	}

	if score < 0 {
		score = 0
	}
	return score, issues
}

func scoreRelevance(entry types.DatasetEntry, useCase string) float64 {
	keywords := significantWords(useCase)
	if len(keywords) == 0 {
		return 1
	}

	text := strings.ToLower(flattenText(entry))
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched++
		}
	}

	// 命中一半以上的目标关键词即视为完全相关
	ratio := float64(matched) / float64(len(keywords)) * 2
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

func entryTags(entry types.DatasetEntry, format types.DatasetFormat) []string {
	tags := []string{string(format)}
	if len(flattenText(entry)) > 500 {
		tags = append(tags, "detailed")
	} else {
		tags = append(tags, "concise")
	}
	return tags
}

// flattenText 拼接条目中全部字符串值，用于长度与关键词统计。
func flattenText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		var sb strings.Builder
		for _, inner := range val {
			sb.WriteString(flattenText(inner))
			sb.WriteString(" ")
		}
		return sb.String()
	case types.DatasetEntry:
		return flattenText(map[string]any(val))
	case []any:
		var sb strings.Builder
		for _, inner := range val {
			sb.WriteString(flattenText(inner))
			sb.WriteString(" ")
		}
		return sb.String()
	default:
		return ""
	}
}

// significantWords 提取长度大于 3 的小写词，过滤常见停用词。
func significantWords(s string) []string {
	stop := map[string]bool{
		"this": true, "that": true, "with": true, "from": true,
		"into": true, "for": true, "and": true, "the": true,
		"about": true, "their": true, "them": true, "have": true,
	}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) > 3 && !stop[w] {
			words = append(words, w)
		}
	}
	return words
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
