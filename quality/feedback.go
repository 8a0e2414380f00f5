package quality

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationFeedback 汇总一批条目的质量模式，用于改进后续生成提示词。
type ValidationFeedback struct {
	CommonIssues           []string `json:"common_issues"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
	QualityPatterns        []string `json:"quality_patterns"`
	AvoidPatterns          []string `json:"avoid_patterns"`
	BatchSummary           string   `json:"batch_summary"`
}

// Feedback 从一批质量分数中归纳反馈。
// 出现在至少两个条目中的问题视为共性问题。
func Feedback(scores []QualityScore) ValidationFeedback {
	if len(scores) == 0 {
		return ValidationFeedback{BatchSummary: "No entries to analyze"}
	}

	high, medium, low := 0, 0, 0
	issueCounts := make(map[string]int)
	var sumRelevance, sumCoherence, sumCompleteness float64

	for _, s := range scores {
		switch {
		case s.OverallScore > 0.8:
			high++
		case s.OverallScore > 0.6:
			medium++
		default:
			low++
		}
		for _, issue := range s.Issues {
			issueCounts[issue]++
		}
		sumRelevance += s.RelevanceScore
		sumCoherence += s.CoherenceScore
		sumCompleteness += s.CompletenessScore
	}

	var common []string
	for issue, count := range issueCounts {
		if count >= 2 {
			common = append(common, fmt.Sprintf("%s (appeared %d times)", issue, count))
		}
	}
	sort.Strings(common)

	n := float64(len(scores))
	fb := ValidationFeedback{
		CommonIssues: common,
		BatchSummary: fmt.Sprintf(
			"%d entries analyzed: %d high, %d medium, %d low quality; avg relevance %.2f, coherence %.2f, completeness %.2f",
			len(scores), high, medium, low,
			sumRelevance/n, sumCoherence/n, sumCompleteness/n),
	}

	if sumCompleteness/n < 0.8 {
		fb.ImprovementSuggestions = append(fb.ImprovementSuggestions,
			"ensure every required field of the dataset format is present and substantive")
	}
	if sumRelevance/n < 0.6 {
		fb.ImprovementSuggestions = append(fb.ImprovementSuggestions,
			"tie each example more directly to the fine-tuning objective")
	}
	if low > high {
		fb.AvoidPatterns = append(fb.AvoidPatterns,
			"short or repetitive outputs that restate the instruction")
	}
	if high > 0 {
		fb.QualityPatterns = append(fb.QualityPatterns,
			"detailed, well-structured examples with all format fields populated")
	}
	return fb
}

// PromptImprovements 将反馈渲染为可直接附加到生成提示词的指导段落。
// 无可用反馈时返回空串。
func PromptImprovements(fb ValidationFeedback) string {
	var sections []string

	if len(fb.AvoidPatterns) > 0 {
		sections = append(sections, "AVOID THE FOLLOWING PATTERNS:\n"+bulletList(fb.AvoidPatterns))
	}
	if len(fb.ImprovementSuggestions) > 0 {
		sections = append(sections, "FOCUS MORE ON:\n"+bulletList(fb.ImprovementSuggestions))
	}
	if len(fb.QualityPatterns) > 0 {
		sections = append(sections, "SUCCESSFUL PATTERNS TO FOLLOW:\n"+bulletList(fb.QualityPatterns))
	}

	if len(sections) == 0 {
		return ""
	}
	return fmt.Sprintf(
		"\n\n--- QUALITY IMPROVEMENT GUIDELINES ---\n%s\n\nBase your generation on these insights from recent quality analysis.\n",
		strings.Join(sections, "\n\n"))
}

func bulletList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}
