package rankllm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	rankllm "github.com/soundprediction/go-rankllm"
	"github.com/soundprediction/go-rankllm/pkg/config"
	"github.com/soundprediction/go-rankllm/pkg/logger"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

var rerankCmd = &cobra.Command{
	Use:   "rerank [candidates file]",
	Short: "Rerank a candidates file in one shot",
	Long: `Rerank the candidates in a JSON file against a query and print the
reordered list to stdout.

The file holds a JSON array; each element is either a bare string or an
object with "id" and "text" fields:

  ["first passage", "second passage"]
  [{"id": "d1", "text": "first passage"}, {"id": "d2", "text": "second passage"}]`,
	Args: cobra.ExactArgs(1),
	RunE: runRerank,
}

var (
	rerankQuery   string
	rerankTopK    int
	rerankShuffle bool
	rerankSeed    int64
	rerankTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(rerankCmd)

	rerankCmd.Flags().StringVarP(&rerankQuery, "query", "q", "", "Query to rank against (required)")
	rerankCmd.Flags().IntVar(&rerankTopK, "top-k", 0, "Only print the top k results (0 prints all)")
	rerankCmd.Flags().BoolVar(&rerankShuffle, "shuffle", false, "Shuffle candidates before the first pass")
	rerankCmd.Flags().Int64Var(&rerankSeed, "seed", 0, "Shuffle seed")
	rerankCmd.Flags().DurationVar(&rerankTimeout, "timeout", 5*time.Minute, "Overall deadline")

	rerankCmd.Flags().String("llm-provider", "openai", "Model provider (openai, ollama, vllm, localai)")
	rerankCmd.Flags().String("llm-model", "", "Model name")
	rerankCmd.Flags().String("llm-api-key", "", "Model API key")
	rerankCmd.Flags().String("llm-base-url", "", "Model base URL")

	_ = rerankCmd.MarkFlagRequired("query")
}

// rerankOutput is the shape printed to stdout.
type rerankOutput struct {
	Query   string         `json:"query"`
	Model   string         `json:"model"`
	Results []rerankEntry  `json:"results"`
	Usage   types.TokenUsage `json:"usage"`
	CostUSD float64        `json:"cost_usd"`
}

type rerankEntry struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

func runRerank(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideRerankFlags(cmd, cfg)

	candidates, err := loadCandidates(args[0])
	if err != nil {
		return err
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	engineCfg, closeCache, err := engineConfig(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()
	engineCfg.ShuffleCandidates = rerankShuffle
	engineCfg.ShuffleSeed = rerankSeed

	engine := rankllm.New(client, &engineCfg)

	ctx, cancel := context.WithTimeout(context.Background(), rerankTimeout)
	defer cancel()

	result, err := engine.Rerank(ctx, rerankQuery, candidates)
	if err != nil {
		return fmt.Errorf("rerank failed: %w", err)
	}

	out := rerankOutput{
		Query:   result.Query,
		Model:   client.Model(),
		Usage:   result.Usage,
		CostUSD: result.CostUSD,
	}
	for _, rc := range result.Candidates {
		if rerankTopK > 0 && len(out.Results) >= rerankTopK {
			break
		}
		out.Results = append(out.Results, rerankEntry{
			Rank:  rc.Rank,
			ID:    rc.ID,
			Text:  rc.Text,
			Score: rc.Score,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func overrideRerankFlags(cmd *cobra.Command, cfg *config.Config) {
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
}

// loadCandidates reads a JSON array of strings or {id, text} objects.
func loadCandidates(path string) ([]types.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("candidates file must hold a JSON array: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(entries))
	for i, raw := range entries {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			candidates = append(candidates, types.Candidate{
				ID:   strconv.Itoa(i),
				Text: text,
			})
			continue
		}

		var obj struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("candidate %d is neither a string nor an object: %w", i, err)
		}
		if obj.ID == "" {
			obj.ID = strconv.Itoa(i)
		}
		candidates = append(candidates, types.Candidate{ID: obj.ID, Text: obj.Text})
	}
	return candidates, nil
}
