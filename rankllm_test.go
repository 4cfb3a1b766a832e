package rankllm

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-rankllm/pkg/cost"
	"github.com/soundprediction/go-rankllm/pkg/llm"
	"github.com/soundprediction/go-rankllm/pkg/rerank"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

func makeCandidates(n int) []types.Candidate {
	out := make([]types.Candidate, n)
	for i := range out {
		out[i] = types.Candidate{
			ID:   fmt.Sprintf("d%d", i),
			Text: fmt.Sprintf("passage number %d", i),
		}
	}
	return out
}

func resultIDs(result *types.RerankResult) []string {
	out := make([]string, len(result.Candidates))
	for i, rc := range result.Candidates {
		out[i] = rc.ID
	}
	return out
}

func TestEngineRejectsInvalidInput(t *testing.T) {
	engine := New(llm.NewMockClient(), nil)

	_, err := engine.Rerank(context.Background(), "", makeCandidates(3))
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	_, err = engine.Rerank(context.Background(), "q", nil)
	assert.ErrorIs(t, err, types.ErrNoCandidates)

	_, err = engine.Rerank(context.Background(), "q", []types.Candidate{})
	assert.ErrorIs(t, err, types.ErrNoCandidates)
}

func TestEngineReordersAndRanks(t *testing.T) {
	client := llm.NewMockClient(llm.MockReply{Content: "[3] > [1] > [2]"})
	engine := New(client, nil)

	result, err := engine.Rerank(context.Background(), "q", makeCandidates(3))
	require.NoError(t, err)

	assert.Equal(t, []string{"d2", "d0", "d1"}, resultIDs(result))
	for i, rc := range result.Candidates {
		assert.Equal(t, i, rc.Rank)
		assert.InDelta(t, 1.0/float64(i+1), rc.Score, 1e-9)
	}
	assert.Equal(t, "q", result.Query)
	assert.Equal(t, 15, result.Usage.TotalTokens)
}

func TestEngineConservesCandidates(t *testing.T) {
	client := llm.NewMockClient(llm.MockReply{Content: "[5] > [4] > [3] > [2] > [1]"})
	engine := New(client, &Config{
		Options: rerank.Options{WindowSize: 5, Stride: 5, RetryBudget: 3, RepairThreshold: 3},
	})

	input := makeCandidates(23)
	result, err := engine.Rerank(context.Background(), "q", input)
	require.NoError(t, err)
	require.Len(t, result.Candidates, len(input))

	got := resultIDs(result)
	want := make([]string, len(input))
	for i, c := range input {
		want[i] = c.ID
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestEngineDeterministic(t *testing.T) {
	run := func() []string {
		client := llm.NewMockClient(llm.MockReply{Content: "[2] > [3] > [1]"})
		engine := New(client, &Config{
			Options: rerank.Options{WindowSize: 3, Stride: 3, MaxConcurrency: 4},
		})
		result, err := engine.Rerank(context.Background(), "q", makeCandidates(9))
		require.NoError(t, err)
		return resultIDs(result)
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}

func TestEngineMultiplePasses(t *testing.T) {
	// Each pass reverses the single window, so two passes restore the
	// input order.
	client := llm.NewMockClient(llm.MockReply{Content: "[3] > [2] > [1]"})
	engine := New(client, &Config{
		Options: rerank.Options{WindowSize: 10, Stride: 5, Passes: 2},
	})

	input := makeCandidates(3)
	result, err := engine.Rerank(context.Background(), "q", input)
	require.NoError(t, err)

	assert.Equal(t, 2, client.CallCount())
	assert.Equal(t, []string{"d0", "d1", "d2"}, resultIDs(result))
	assert.Equal(t, 30, result.Usage.TotalTokens)
}

func TestEngineShuffleReproducible(t *testing.T) {
	run := func(seed int64) []string {
		// Unparseable output degrades every window to identity, so the
		// result exposes the shuffled order directly.
		client := llm.NewMockClient(llm.MockReply{Content: "no ranking"})
		engine := New(client, &Config{
			Options:           rerank.Options{WindowSize: 10, Stride: 5},
			ShuffleCandidates: true,
			ShuffleSeed:       seed,
		})
		result, err := engine.Rerank(context.Background(), "q", makeCandidates(8))
		require.NoError(t, err)
		return resultIDs(result)
	}

	assert.Equal(t, run(42), run(42))
	assert.NotEqual(t, run(42), run(7))
}

func TestEngineRecordsInvocations(t *testing.T) {
	client := llm.NewMockClient(llm.MockReply{Content: "[2] > [1]"})
	engine := New(client, &Config{
		Options: rerank.Options{WindowSize: 10, Stride: 5, RecordInvocations: true},
	})

	result, err := engine.Rerank(context.Background(), "q", makeCandidates(2))
	require.NoError(t, err)

	require.Len(t, result.Invocations, 1)
	inv := result.Invocations[0]
	assert.NotEmpty(t, inv.ID)
	assert.Contains(t, inv.Prompt, "passage number 0")
	assert.Equal(t, "[2] > [1]", inv.Response)
}

func TestEngineCostEstimate(t *testing.T) {
	costs := cost.NewCalculator()
	costs.SetPrice("mock-model", cost.PricingModel{InputPrice: 1_000_000, OutputPrice: 0})

	client := llm.NewMockClient(llm.MockReply{Content: "[2] > [1]"})
	engine := New(client, &Config{
		Options: rerank.Options{WindowSize: 10, Stride: 5},
		Costs:   costs,
	})

	result, err := engine.Rerank(context.Background(), "q", makeCandidates(2))
	require.NoError(t, err)

	// 10 prompt tokens at 1 USD per token.
	assert.InDelta(t, 10.0, result.CostUSD, 1e-9)
}

func TestEnginePropagatesWindowError(t *testing.T) {
	client := llm.NewMockClient(llm.MockReply{Err: llm.NewError(llm.KindFatal, assert.AnError)})
	engine := New(client, nil)

	_, err := engine.Rerank(context.Background(), "q", makeCandidates(3))
	require.Error(t, err)

	var winErr *types.WindowError
	assert.ErrorAs(t, err, &winErr)
}

func TestIdentityEngine(t *testing.T) {
	engine := NewIdentityEngine()

	_, err := engine.Rerank(context.Background(), "", makeCandidates(2))
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
	_, err = engine.Rerank(context.Background(), "q", nil)
	assert.ErrorIs(t, err, types.ErrNoCandidates)

	result, err := engine.Rerank(context.Background(), "q", makeCandidates(4))
	require.NoError(t, err)
	assert.Equal(t, []string{"d0", "d1", "d2", "d3"}, resultIDs(result))
	assert.Zero(t, result.Usage.TotalTokens)
	assert.NoError(t, engine.Close())
}
