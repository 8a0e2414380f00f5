// Package prompt 构造数据集生成所用的提示词。
package prompt

import (
	"fmt"
	"strings"

	"github.com/Cstannahill/dataset-generator/types"
)

// DefaultSystemPrompt 用于托管后端的 system 消息。
const DefaultSystemPrompt = "You are an expert at creating high-quality training datasets. " +
	"Always respond with valid JSON arrays containing the requested training examples."

// formatInstructions 各数据集格式的结构说明，拼接进用户提示词。
var formatInstructions = map[types.DatasetFormat]string{
	types.FormatAlpaca:             "Format each as JSON with fields: instruction, input, output.",
	types.FormatConversation:       "Format each as JSON with a 'messages' array containing objects with 'role' (user/assistant) and 'content' fields.",
	types.FormatChainOfThought:     "Format each as JSON with fields: question, answer (including step-by-step reasoning).",
	types.FormatPreferenceRanking:  "Format each as JSON with fields: prompt, chosen, rejected.",
	types.FormatFunctionCall:       "Format each as JSON with fields: messages (conversation), function (name and arguments).",
	types.FormatMultiRoundDialogue: "Format each as JSON with fields: instruction, conversation (array of role/content objects).",
	types.FormatCodeTask:           "Format each as JSON with fields: prompt, code, output.",
	types.FormatReflection:         "Format each as JSON with fields: instruction, output, reflection, corrected.",
	types.FormatRetrievalEmbedding: "Format each as JSON with fields: query, positive_passage, negative_passages (array).",
	types.FormatReranking:          "Format each as JSON with fields: query, documents (array of text), relevance_scores (array of floats).",
}

// FormatInstruction 返回指定格式的结构说明，未知格式退回 Alpaca。
func FormatInstruction(format types.DatasetFormat) string {
	if instr, ok := formatInstructions[format]; ok {
		return instr
	}
	return formatInstructions[types.FormatAlpaca]
}

// Builder 按任务构造生成提示词。零值即可使用。
type Builder struct {
	// SystemPrompt 覆盖默认 system 消息，留空时使用 DefaultSystemPrompt。
	SystemPrompt string
}

// System 返回 system 消息内容。
func (b *Builder) System() string {
	if b.SystemPrompt != "" {
		return b.SystemPrompt
	}
	return DefaultSystemPrompt
}

// Build 为一个子批次构造用户提示词。
// count 是该次调用应产出的条目数，goal 与 context 来自任务本身。
func (b *Builder) Build(goal, context string, count int, format types.DatasetFormat) string {
	if context == "" {
		context = "This is the first batch."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate exactly %d high-quality training examples for the following fine-tuning objective:\n\n", count)
	fmt.Fprintf(&sb, "OBJECTIVE: %s\n", goal)
	fmt.Fprintf(&sb, "CONTEXT: %s\n\n", context)
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "1. %s\n", FormatInstruction(format))
	sb.WriteString("2. Instructions should be clear, specific, and actionable\n")
	sb.WriteString("3. Inputs should provide relevant context or data\n")
	sb.WriteString("4. Outputs should be comprehensive and helpful responses\n")
	sb.WriteString("5. Ensure diversity in topics, complexity, and formats\n")
	sb.WriteString("6. Make examples realistic and practical\n\n")
	sb.WriteString("Return ONLY a valid JSON array with no additional text:\n")
	sb.WriteString("[\n  {...},\n  {...}\n]")
	return sb.String()
}
