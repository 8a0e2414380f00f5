// =============================================================================
// Dataset Generator 主入口
// =============================================================================
// 并发数据集生成命令行工具
//
// 使用方法:
//
//	datasetgen generate --goal "..." --entries 100   # 生成数据集
//	datasetgen generate --config config.yaml         # 指定配置文件
//	datasetgen models                                # 列出可用模型
//	datasetgen version                               # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Cstannahill/dataset-generator/config"
	"github.com/Cstannahill/dataset-generator/dataset"
	"github.com/Cstannahill/dataset-generator/generator"
	"github.com/Cstannahill/dataset-generator/internal/metrics"
	"github.com/Cstannahill/dataset-generator/internal/telemetry"
	"github.com/Cstannahill/dataset-generator/providers"
	"github.com/Cstannahill/dataset-generator/providers/ollama"
	"github.com/Cstannahill/dataset-generator/providers/openai"
	"github.com/Cstannahill/dataset-generator/quality"
	"github.com/Cstannahill/dataset-generator/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "models":
		runModels(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🚀 generate 命令
// =============================================================================

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	entries := fs.Int("entries", 100, "Total number of entries to generate")
	batchSize := fs.Int("batch-size", 10, "Entries per batch")
	model := fs.String("model", "llama3.2:3b", "Model id to generate with")
	provider := fs.String("provider", "ollama", "Backend provider (ollama|openai)")
	goal := fs.String("goal", "", "Fine-tuning goal (required)")
	domainContext := fs.String("context", "", "Domain context for the prompts")
	format := fs.String("format", "alpaca", "Dataset format")
	fs.Parse(args)

	if *goal == "" {
		fmt.Fprintln(os.Stderr, "Missing required flag: --goal")
		fs.Usage()
		os.Exit(1)
	}

	genCfg := types.GenerationConfig{
		TargetEntries:  *entries,
		BatchSize:      *batchSize,
		SelectedModel:  *model,
		Provider:       types.ModelProvider(*provider),
		FineTuningGoal: *goal,
		DomainContext:  *domainContext,
		Format:         types.DatasetFormat(*format),
	}
	if !genCfg.Provider.Valid() {
		fmt.Fprintf(os.Stderr, "Unknown provider: %s\n", *provider)
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting dataset generation",
		zap.String("version", Version),
		zap.Int("target_entries", genCfg.TargetEntries),
		zap.Int("batch_size", genCfg.BatchSize),
		zap.String("model", genCfg.SelectedModel),
		zap.String("provider", string(genCfg.Provider)),
		zap.String("format", string(genCfg.Format)),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if otelProviders != nil {
			_ = otelProviders.Shutdown(context.Background())
		}
	}()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
		go serveMetrics(cfg.Metrics.Port, logger)
	}

	registry := buildRegistry(cfg, logger)

	engineOpts := []generator.Option{}
	if collector != nil {
		engineOpts = append(engineOpts, generator.WithMetrics(collector))
	}
	engine, err := generator.NewEngine(engineConfig(cfg.Generation), registry, logger, engineOpts...)
	if err != nil {
		logger.Fatal("Failed to create engine", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasks := types.PlanTasks(genCfg)
	progress := make(chan types.ProgressUpdate, len(tasks))
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progress {
			if update.BatchCompleted != nil {
				fmt.Printf("batch %d done — %d entries, %d errors, %d retries, %.1f entries/s\n",
					*update.BatchCompleted, update.EntriesGenerated,
					update.ErrorsCount, update.RetriesCount, update.EntriesPerSecond)
			}
		}
	}()

	result, err := engine.Run(ctx, tasks, progress)
	close(progress)
	<-progressDone
	if err != nil {
		logger.Fatal("Generation failed", zap.Error(err))
	}
	if len(result) == 0 {
		logger.Fatal("No entries generated")
	}

	if cfg.Export.IncludeQualityReport {
		reportQuality(result, genCfg, logger)
	}

	writer := dataset.NewWriter(logger)
	path, err := writer.WriteFile(cfg.Export.OutputDir, result, genCfg.Format, cfg.Export.Format)
	if err != nil {
		logger.Fatal("Export failed", zap.Error(err))
	}

	stats := dataset.Collect(result)
	logger.Info("Dataset generation finished",
		zap.String("path", path),
		zap.Int("entries", stats.Count),
		zap.Int("duplicates", stats.Duplicates),
	)
	fmt.Printf("Dataset written to %s (%d entries)\n", path, stats.Count)
}

// =============================================================================
// 📚 models 命令
// =============================================================================

func runModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := zap.NewNop()
	registry := buildRegistry(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, id := range []types.ModelProvider{types.ProviderOllama, types.ProviderOpenAI} {
		prov, err := registry.Get(id)
		if err != nil {
			continue
		}
		models, err := prov.ListModels(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			continue
		}
		fmt.Printf("%s:\n", id)
		for _, m := range models {
			if m.Size != "" {
				fmt.Printf("  %s (%s)\n", m.ID, m.Size)
			} else {
				fmt.Printf("  %s\n", m.ID)
			}
		}
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("datasetgen %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`datasetgen - Concurrent LLM dataset generator

Usage:
  datasetgen <command> [options]

Commands:
  generate  Generate a fine-tuning dataset
  models    List models available on the configured backends
  version   Show version information
  help      Show this help message

Options for 'generate':
  --config <path>    Path to configuration file (YAML)
  --goal <text>      Fine-tuning goal (required)
  --context <text>   Domain context
  --entries <n>      Total entries to generate (default 100)
  --batch-size <n>   Entries per batch (default 10)
  --model <id>       Model id (default llama3.2:3b)
  --provider <name>  ollama or openai (default ollama)
  --format <name>    Dataset format (default alpaca)

Examples:
  datasetgen generate --goal "Customer support for a SaaS product" --entries 200
  datasetgen generate --config config.yaml --provider openai --model gpt-4o-mini
  datasetgen models
  datasetgen version`)
}

// =============================================================================
// 🔧 装配辅助
// =============================================================================

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildRegistry(cfg *config.Config, logger *zap.Logger) *providers.Registry {
	registry := providers.NewRegistry()
	registry.Register(ollama.NewOllamaProvider(providers.OllamaConfig{
		BaseURL:     cfg.Ollama.BaseURL,
		Temperature: cfg.Ollama.Temperature,
		TopP:        cfg.Ollama.TopP,
		TopK:        cfg.Ollama.TopK,
	}, logger))

	apiKey := cfg.OpenAI.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	registry.Register(openai.NewOpenAIProvider(providers.OpenAIConfig{
		APIKey:       apiKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Organization: cfg.OpenAI.Organization,
		Temperature:  cfg.OpenAI.Temperature,
		MaxTokens:    cfg.OpenAI.MaxTokens,
	}, logger))
	return registry
}

func engineConfig(gen config.GenerationConfig) generator.Config {
	return generator.Config{
		MaxConcurrentBatches:          gen.MaxConcurrentBatches,
		MaxConcurrentRequestsPerBatch: gen.MaxConcurrentRequestsPerBatch,
		RequestsPerSecond: map[types.ModelProvider]int{
			types.ProviderOllama: gen.OllamaRequestsPerSecond,
			types.ProviderOpenAI: gen.OpenAIRequestsPerSecond,
		},
		MaxRetries:     gen.MaxRetries,
		RetryDelay:     gen.RetryDelay,
		RequestTimeout: gen.RequestTimeout,
	}
}

func reportQuality(entries []types.DatasetEntry, genCfg types.GenerationConfig, logger *zap.Logger) {
	scores := make([]quality.QualityScore, 0, len(entries))
	for _, entry := range entries {
		scores = append(scores, quality.Score(entry, genCfg.FineTuningGoal, genCfg.Format))
	}
	fb := quality.Feedback(scores)
	logger.Info("Quality report", zap.String("summary", fb.BatchSummary))
	for _, issue := range fb.CommonIssues {
		logger.Warn("Recurring quality issue", zap.String("issue", issue))
	}
}

func serveMetrics(port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("Metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server stopped", zap.Error(err))
	}
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
