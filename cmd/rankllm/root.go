// Package rankllm implements the rankllm command-line interface.
package rankllm

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-rankllm/pkg/config"
	"github.com/soundprediction/go-rankllm/pkg/llm"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rankllm",
	Short: "Listwise reranking with large language models",
	Long: `rankllm reranks retrieval candidates by prompting a large language model
to order sliding windows of passages by relevance to a query.

It can run as an HTTP service with a Jina-compatible /v1/rerank endpoint
or rerank a candidates file in one shot.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default rankllm.yaml in the working directory)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rankllm")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.rankllm")
	}

	viper.SetEnvPrefix("RANKLLM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// newClient builds the model client the configuration asks for, wrapped with
// the circuit breaker and usage tracking when configured.
func newClient(cfg *config.Config) (llm.Client, error) {
	client, err := newBaseClient(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.LLM.Breaker {
		client = llm.NewBreakerClient(client, llm.BreakerSettings{})
	}
	if cfg.LLM.UsageFile != "" {
		tracker, err := llm.NewUsageTracker(cfg.LLM.UsageFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open usage file: %w", err)
		}
		client = llm.NewUsageTrackingClient(client, tracker)
	}
	return client, nil
}

func newBaseClient(cfg *config.Config) (llm.Client, error) {
	llmConfig := llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   &cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	}

	switch cfg.LLM.Provider {
	case "", "openai":
		if cfg.LLM.BaseURL != "" {
			return llm.NewOpenAICompatibleClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, llmConfig)
		}
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return llm.NewOpenAIClient(cfg.LLM.APIKey, llmConfig), nil
	case "ollama":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return llm.NewOllamaClient(baseURL, cfg.LLM.Model, llmConfig)
	case "vllm":
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("base_url is required for the vllm provider")
		}
		return llm.NewVLLMClient(cfg.LLM.BaseURL, cfg.LLM.Model, llmConfig)
	case "localai":
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("base_url is required for the localai provider")
		}
		return llm.NewLocalAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, llmConfig)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
