package rankllm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	rankllm "github.com/soundprediction/go-rankllm"
	"github.com/soundprediction/go-rankllm/pkg/cache"
	"github.com/soundprediction/go-rankllm/pkg/config"
	"github.com/soundprediction/go-rankllm/pkg/logger"
	"github.com/soundprediction/go-rankllm/pkg/rerank"
	"github.com/soundprediction/go-rankllm/pkg/server"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rerank HTTP server",
	Long: `Start the HTTP server exposing a Jina-compatible /v1/rerank endpoint.

Requests carry a query and a list of documents; the response returns the
documents ordered by relevance with rank-derived scores. Window size,
stride and pass count can be overridden per request.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
	serveMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&servePort, "port", 8082, "Server port")
	serveCmd.Flags().StringVar(&serveMode, "mode", "release", "Server mode (debug, release, test)")

	serveCmd.Flags().String("llm-provider", "openai", "Model provider (openai, ollama, vllm, localai)")
	serveCmd.Flags().String("llm-model", "", "Model name")
	serveCmd.Flags().String("llm-api-key", "", "Model API key")
	serveCmd.Flags().String("llm-base-url", "", "Model base URL")

	serveCmd.Flags().Int("window-size", 0, "Candidates per window")
	serveCmd.Flags().Int("stride", 0, "Window advance between judgments")
	serveCmd.Flags().Int("passes", 0, "Full sweeps over the list")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideServeFlags(cmd, cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	baseConfig, closeCache, err := engineConfig(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	srv := server.New(cfg, client, baseConfig, log)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info("server stopped")
		return nil
	}
}

func overrideServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serveMode
	}

	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider, _ = cmd.Flags().GetString("llm-provider")
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model, _ = cmd.Flags().GetString("llm-model")
	}
	if cmd.Flags().Changed("llm-api-key") {
		cfg.LLM.APIKey, _ = cmd.Flags().GetString("llm-api-key")
	}
	if cmd.Flags().Changed("llm-base-url") {
		cfg.LLM.BaseURL, _ = cmd.Flags().GetString("llm-base-url")
	}

	if cmd.Flags().Changed("window-size") {
		cfg.Rerank.WindowSize, _ = cmd.Flags().GetInt("window-size")
	}
	if cmd.Flags().Changed("stride") {
		cfg.Rerank.Stride, _ = cmd.Flags().GetInt("stride")
	}
	if cmd.Flags().Changed("passes") {
		cfg.Rerank.Passes, _ = cmd.Flags().GetInt("passes")
	}
}

// engineConfig translates file configuration into an engine configuration,
// opening the response cache when it is enabled. The returned func closes
// whatever was opened and is safe to call unconditionally.
func engineConfig(cfg *config.Config, log *slog.Logger) (rankllm.Config, func(), error) {
	opts := rerank.Options{
		WindowSize:      cfg.Rerank.WindowSize,
		Stride:          cfg.Rerank.Stride,
		Passes:          cfg.Rerank.Passes,
		RetryBudget:     cfg.Rerank.RetryBudget,
		RepairThreshold: cfg.Rerank.RepairThreshold,
		Direction:       parseDirection(cfg.Rerank.Direction),
		MaxConcurrency:  cfg.Rerank.MaxConcurrency,
	}

	engineCfg := rankllm.Config{
		Options: opts,
		Logger:  log,
	}

	closeCache := func() {}
	if cfg.Cache.Enabled {
		c, err := cache.NewBadgerCache(cfg.Cache.Path)
		if err != nil {
			return rankllm.Config{}, nil, fmt.Errorf("failed to open cache at %s: %w", cfg.Cache.Path, err)
		}
		engineCfg.Cache = c
		closeCache = func() {
			if err := c.Close(); err != nil {
				log.Warn("cache close failed", "error", err)
			}
		}
	}

	return engineCfg, closeCache, nil
}

func parseDirection(s string) types.Direction {
	if s == "forward" {
		return types.DirectionForward
	}
	return types.DirectionBackward
}
