package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

func TestCost(t *testing.T) {
	c := NewCalculator()
	usage := types.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 100_000}

	tests := []struct {
		model string
		want  float64
	}{
		{"gpt-4o", 2.50 + 1.00},
		{"gpt-4o-mini", 0.15 + 0.06},
		{"GPT-4o", 2.50 + 1.00},
		{"rank_zephyr", 0},
		{"totally-unknown-model", 0},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Cost(tt.model, usage), 1e-9)
		})
	}
}

func TestCostPrefixMatch(t *testing.T) {
	c := NewCalculator()
	usage := types.TokenUsage{PromptTokens: 1_000_000}

	// Versioned names resolve to their base pricing.
	assert.InDelta(t, 0.15, c.Cost("gpt-4o-mini-2024-07-18", usage), 1e-9)
	assert.InDelta(t, 2.50, c.Cost("gpt-4o-2024-08-06", usage), 1e-9)
}

func TestSetPriceOverrides(t *testing.T) {
	c := NewCalculator()
	c.SetPrice("my-model", PricingModel{InputPrice: 1.00, OutputPrice: 2.00})

	usage := types.TokenUsage{PromptTokens: 500_000, CompletionTokens: 500_000}
	assert.InDelta(t, 0.5+1.0, c.Cost("my-model", usage), 1e-9)
}

func TestCostZeroUsage(t *testing.T) {
	c := NewCalculator()
	assert.Zero(t, c.Cost("gpt-4o", types.TokenUsage{}))
}
