package providers

import "time"

// OllamaConfig Ollama Provider 配置
type OllamaConfig struct {
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Temperature float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	TopK        int           `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// OpenAIConfig OpenAI Provider 配置
type OpenAIConfig struct {
	APIKey       string        `json:"api_key" yaml:"api_key"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Organization string        `json:"organization,omitempty" yaml:"organization,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Temperature  float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}
