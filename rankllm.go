// Package rankllm reranks candidate documents from a first-stage retriever
// using a large language model as the relevance judge. The list is swept by
// a bounded sliding window; the model orders each window and the orderings
// are folded back into a single global ranking.
package rankllm

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/soundprediction/go-rankllm/pkg/cache"
	"github.com/soundprediction/go-rankllm/pkg/cost"
	"github.com/soundprediction/go-rankllm/pkg/llm"
	"github.com/soundprediction/go-rankllm/pkg/prompts"
	"github.com/soundprediction/go-rankllm/pkg/rerank"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

// Reranker is the main interface for reordering retrieved candidates.
type Reranker interface {
	// Rerank reorders candidates by relevance to query. The returned result
	// contains exactly the input candidate set: no candidate is ever
	// created, duplicated or dropped. On failure a typed error is returned
	// and no partial result.
	Rerank(ctx context.Context, query string, candidates []types.Candidate) (*types.RerankResult, error)

	// Close releases backend resources.
	Close() error
}

// Config holds configuration for the Engine beyond the scheduler options.
type Config struct {
	// Options configures the sliding-window scheduler.
	Options rerank.Options
	// ShuffleCandidates randomizes the input order before the first pass,
	// used in evaluation to measure order sensitivity.
	ShuffleCandidates bool
	// ShuffleSeed makes shuffling reproducible.
	ShuffleSeed int64
	// Library overrides the prompt library.
	Library prompts.Library
	// Cache enables window response caching.
	Cache cache.Cache
	// Logger receives scheduler diagnostics.
	Logger *slog.Logger
	// Costs prices token usage; nil disables cost estimates.
	Costs *cost.Calculator
}

// Engine is the default Reranker implementation.
type Engine struct {
	client    llm.Client
	scheduler *rerank.Scheduler
	config    Config
}

// New creates an Engine. A nil config uses rerank.DefaultOptions.
func New(client llm.Client, config *Config) *Engine {
	if config == nil {
		config = &Config{Options: rerank.DefaultOptions()}
	}
	if config.Costs == nil {
		config.Costs = cost.NewCalculator()
	}

	scheduler := rerank.NewScheduler(client, config.Library, config.Logger, config.Options)
	if config.Cache != nil {
		scheduler.WithCache(config.Cache)
	}

	return &Engine{
		client:    client,
		scheduler: scheduler,
		config:    *config,
	}
}

// Rerank implements Reranker.
func (e *Engine) Rerank(ctx context.Context, query string, candidates []types.Candidate) (*types.RerankResult, error) {
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	if len(candidates) == 0 {
		return nil, types.ErrNoCandidates
	}

	order := append([]types.Candidate(nil), candidates...)
	if e.config.ShuffleCandidates {
		rng := rand.New(rand.NewSource(e.config.ShuffleSeed))
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	result := &types.RerankResult{Query: query}
	passes := e.scheduler.Options().Passes
	for pass := 0; pass < passes; pass++ {
		passResult, err := e.scheduler.RunPass(ctx, pass, query, order)
		if err != nil {
			return nil, err
		}
		order = passResult.Order
		result.Usage.Add(passResult.Usage)
		result.Invocations = append(result.Invocations, passResult.Invocations...)
	}

	result.Candidates = rankCandidates(order)
	if e.config.Costs != nil {
		result.CostUSD = e.config.Costs.Cost(e.client.Model(), result.Usage)
	}
	return result, nil
}

// Close implements Reranker.
func (e *Engine) Close() error {
	return e.client.Close()
}

// rankCandidates assigns final ranks and rank-derived scores.
func rankCandidates(order []types.Candidate) []types.RankedCandidate {
	ranked := make([]types.RankedCandidate, len(order))
	for i, c := range order {
		ranked[i] = types.RankedCandidate{
			Candidate: c,
			Rank:      i,
			Score:     1.0 / float64(i+1),
		}
	}
	return ranked
}
