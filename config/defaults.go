// =============================================================================
// 📦 Dataset Generator 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Generation: DefaultGenerationConfig(),
		Ollama:     DefaultOllamaConfig(),
		OpenAI:     DefaultOpenAIConfig(),
		Export:     DefaultExportConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultGenerationConfig 返回默认生成引擎配置
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxConcurrentBatches:          4,
		MaxConcurrentRequestsPerBatch: 3,
		OllamaRequestsPerSecond:       10,
		OpenAIRequestsPerSecond:       60, // OpenAI Tier 1 允许每分钟 60 次请求
		MaxRetries:                    3,
		RetryDelay:                    time.Second,
		RequestTimeout:                30 * time.Second,
	}
}

// DefaultOllamaConfig 返回默认 Ollama 配置
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:     "http://localhost:11434",
		Temperature: 0.7,
		TopP:        0.9,
		TopK:        40,
	}
}

// DefaultOpenAIConfig 返回默认 OpenAI 配置
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      "",
		BaseURL:     "https://api.openai.com",
		Temperature: 0.7,
		MaxTokens:   4000,
	}
}

// DefaultExportConfig 返回默认导出配置
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		OutputDir:            "datasets",
		Format:               "jsonl",
		IncludeQualityReport: true,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "datasetgen",
		Port:      9091,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "dataset-generator",
		SampleRate:   0.1,
	}
}
