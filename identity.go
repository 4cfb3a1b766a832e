package rankllm

import (
	"context"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// IdentityEngine is a Reranker that preserves the first-stage order. It is
// the baseline for evaluation and a drop-in stand-in when no model backend
// is available.
type IdentityEngine struct{}

// NewIdentityEngine creates an identity reranker.
func NewIdentityEngine() *IdentityEngine {
	return &IdentityEngine{}
}

// Rerank implements Reranker without invoking any model.
func (e *IdentityEngine) Rerank(ctx context.Context, query string, candidates []types.Candidate) (*types.RerankResult, error) {
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	if len(candidates) == 0 {
		return nil, types.ErrNoCandidates
	}
	return &types.RerankResult{
		Query:      query,
		Candidates: rankCandidates(append([]types.Candidate(nil), candidates...)),
	}, nil
}

// Close implements Reranker.
func (e *IdentityEngine) Close() error { return nil }
