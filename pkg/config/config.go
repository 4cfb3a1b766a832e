// Package config loads application configuration from files and environment
// variables.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// LLM backend configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Rerank algorithm configuration
	Rerank RerankConfig `mapstructure:"rerank"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// LLMConfig holds model backend configuration.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, ollama, vllm, localai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// Breaker stops calling a backend that is hard down instead of burning
	// every window's retry budget against it.
	Breaker bool `mapstructure:"breaker"`
	// UsageFile, when set, persists running token totals across invocations.
	UsageFile string `mapstructure:"usage_file"`
}

// RerankConfig holds sliding-window parameters.
type RerankConfig struct {
	WindowSize      int    `mapstructure:"window_size"`
	Stride          int    `mapstructure:"stride"`
	Passes          int    `mapstructure:"passes"`
	RetryBudget     int    `mapstructure:"retry_budget"`
	RepairThreshold int    `mapstructure:"repair_threshold"`
	Direction       string `mapstructure:"direction"` // forward, backward
	MaxConcurrency  int    `mapstructure:"max_concurrency"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from viper's sources and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8082)
	viper.SetDefault("server.mode", "release")

	// LLM defaults
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 256)
	viper.SetDefault("llm.breaker", true)

	// Rerank defaults
	viper.SetDefault("rerank.window_size", 20)
	viper.SetDefault("rerank.stride", 10)
	viper.SetDefault("rerank.passes", 1)
	viper.SetDefault("rerank.retry_budget", 3)
	viper.SetDefault("rerank.repair_threshold", 3)
	viper.SetDefault("rerank.direction", "backward")
	viper.SetDefault("rerank.max_concurrency", 4)

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.path", ".rankllm-cache")
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("RANKLLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("RANKLLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}
}
