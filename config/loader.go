// =============================================================================
// 📦 Dataset Generator 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("DATASETGEN").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是数据集生成器的完整配置结构
type Config struct {
	// Generation 并发生成引擎配置
	Generation GenerationConfig `yaml:"generation" env:"GENERATION"`

	// Ollama 本地后端配置
	Ollama OllamaConfig `yaml:"ollama" env:"OLLAMA"`

	// OpenAI 托管后端配置
	OpenAI OpenAIConfig `yaml:"openai" env:"OPENAI"`

	// Export 数据集导出配置
	Export ExportConfig `yaml:"export" env:"EXPORT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// GenerationConfig 并发生成引擎配置
type GenerationConfig struct {
	// 全局并发批次上限
	MaxConcurrentBatches int `yaml:"max_concurrent_batches" env:"MAX_CONCURRENT_BATCHES"`
	// 单批次内并发请求上限
	MaxConcurrentRequestsPerBatch int `yaml:"max_concurrent_requests_per_batch" env:"MAX_CONCURRENT_REQUESTS_PER_BATCH"`
	// Ollama 每秒请求数
	OllamaRequestsPerSecond int `yaml:"ollama_requests_per_second" env:"OLLAMA_REQUESTS_PER_SECOND"`
	// OpenAI 每秒请求数
	OpenAIRequestsPerSecond int `yaml:"openai_requests_per_second" env:"OPENAI_REQUESTS_PER_SECOND"`
	// 最大重试次数（0 表示不重试）
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 重试间隔（固定，不做指数退避）
	RetryDelay time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	// 单次请求超时
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// OllamaConfig Ollama 后端配置
type OllamaConfig struct {
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 采样温度
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// Top-P
	TopP float64 `yaml:"top_p" env:"TOP_P"`
	// Top-K
	TopK int `yaml:"top_k" env:"TOP_K"`
}

// OpenAIConfig OpenAI 后端配置
type OpenAIConfig struct {
	// API Key（留空时从 OPENAI_API_KEY 读取）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 组织 ID（可选）
	Organization string `yaml:"organization" env:"ORGANIZATION"`
	// 采样温度
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// 单次响应最大 Token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
}

// ExportConfig 数据集导出配置
type ExportConfig struct {
	// 输出目录
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
	// 输出格式: json, jsonl
	Format string `yaml:"format" env:"FORMAT"`
	// 是否附带质量评估报告
	IncludeQualityReport bool `yaml:"include_quality_report" env:"INCLUDE_QUALITY_REPORT"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用 Prometheus 指标
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// 指标端口
	Port int `yaml:"port" env:"PORT"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "DATASETGEN",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Generation.MaxConcurrentBatches <= 0 {
		errs = append(errs, "max_concurrent_batches must be positive")
	}
	if c.Generation.MaxConcurrentRequestsPerBatch <= 0 {
		errs = append(errs, "max_concurrent_requests_per_batch must be positive")
	}
	if c.Generation.OllamaRequestsPerSecond <= 0 {
		errs = append(errs, "ollama_requests_per_second must be positive")
	}
	if c.Generation.OpenAIRequestsPerSecond <= 0 {
		errs = append(errs, "openai_requests_per_second must be positive")
	}
	if c.Generation.MaxRetries < 0 {
		errs = append(errs, "max_retries must not be negative")
	}
	if c.Generation.RetryDelay < 0 {
		errs = append(errs, "retry_delay must not be negative")
	}
	if c.Generation.RequestTimeout <= 0 {
		errs = append(errs, "request_timeout must be positive")
	}
	if c.Export.Format != "json" && c.Export.Format != "jsonl" {
		errs = append(errs, "export format must be json or jsonl")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
