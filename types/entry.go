package types

import "fmt"

// ModelProvider 标识生成后端，同时作为限流域：
// 每个 Provider 拥有独立的速率限制器实例。
type ModelProvider string

const (
	ProviderOllama ModelProvider = "ollama"
	ProviderOpenAI ModelProvider = "openai"
)

// Valid reports whether the provider is a known backend identity.
func (p ModelProvider) Valid() bool {
	return p == ProviderOllama || p == ProviderOpenAI
}

// Model 描述一个可用于生成的模型。
type Model struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Size         string        `json:"size"`
	Modified     string        `json:"modified"`
	Provider     ModelProvider `json:"provider"`
	Capabilities []string      `json:"capabilities"`
}

// DatasetFormat 是训练样本的目标格式。
type DatasetFormat string

const (
	FormatAlpaca             DatasetFormat = "alpaca"
	FormatConversation       DatasetFormat = "conversation"
	FormatChainOfThought     DatasetFormat = "chain_of_thought"
	FormatPreferenceRanking  DatasetFormat = "preference_ranking"
	FormatFunctionCall       DatasetFormat = "function_call"
	FormatMultiRoundDialogue DatasetFormat = "multi_round_dialogue"
	FormatCodeTask           DatasetFormat = "code_task"
	FormatReflection         DatasetFormat = "reflection"
	FormatRetrievalEmbedding DatasetFormat = "retrieval_embedding"
	FormatReranking          DatasetFormat = "reranking"
)

// AllFormats 列出全部受支持的数据集格式。
func AllFormats() []DatasetFormat {
	return []DatasetFormat{
		FormatAlpaca,
		FormatConversation,
		FormatChainOfThought,
		FormatPreferenceRanking,
		FormatFunctionCall,
		FormatMultiRoundDialogue,
		FormatCodeTask,
		FormatReflection,
		FormatRetrievalEmbedding,
		FormatReranking,
	}
}

// DatasetEntry 是一条生成的训练样本。字段结构由数据集格式决定，
// 引擎将其视为不透明记录，只做计数与拼接。
type DatasetEntry map[string]any

// String 返回条目中指定键的字符串值，不存在或类型不符时返回空串。
func (e DatasetEntry) String(key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

// FallbackEntry 构造解析失败时的占位条目。编号从 1 开始，
// 同一输入总是产生相同输出。
func FallbackEntry(i int) DatasetEntry {
	return DatasetEntry{
		"instruction": fmt.Sprintf("Sample instruction %d", i),
		"input":       fmt.Sprintf("Sample input context %d", i),
		"output":      fmt.Sprintf("Sample response output %d", i),
	}
}
