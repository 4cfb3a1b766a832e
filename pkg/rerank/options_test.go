package rerank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	assert.Equal(t, DefaultWindowSize, opts.WindowSize)
	assert.Equal(t, DefaultStride, opts.Stride)
	assert.Equal(t, DefaultPasses, opts.Passes)
	assert.Equal(t, types.DirectionBackward, opts.Direction)
	assert.Equal(t, DefaultMaxConcurrency, opts.MaxConcurrency)
	assert.Equal(t, DefaultCacheTTL, opts.CacheTTL)
	assert.Greater(t, opts.PromptBudget, 0)

	// Zero is meaningful for retries and repair; it must survive.
	assert.Zero(t, opts.RetryBudget)
	assert.Zero(t, opts.RepairThreshold)
}

func TestOptionsStrideClampedToWindow(t *testing.T) {
	opts := Options{WindowSize: 5, Stride: 20}.withDefaults()
	assert.Equal(t, 5, opts.Stride)
}

func TestOptionsNegativeBudgetsClamped(t *testing.T) {
	opts := Options{RetryBudget: -1, RepairThreshold: -2}.withDefaults()
	assert.Zero(t, opts.RetryBudget)
	assert.Zero(t, opts.RepairThreshold)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, DefaultRetryBudget, opts.RetryBudget)
	assert.Equal(t, DefaultRepairThreshold, opts.RepairThreshold)
}
