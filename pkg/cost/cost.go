// Package cost estimates the USD cost of rerank invocations from token
// usage, so callers can budget sliding-window configurations (more overlap
// and more passes mean more model calls).
package cost

import (
	"strings"
	"sync"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// PricingModel defines the cost per 1M tokens.
type PricingModel struct {
	InputPrice  float64 // cost per 1M input tokens
	OutputPrice float64 // cost per 1M output tokens
}

// Calculator maps model names to pricing and computes invocation costs.
type Calculator struct {
	mu     sync.RWMutex
	prices map[string]PricingModel
}

// NewCalculator creates a calculator with default pricing for common models.
func NewCalculator() *Calculator {
	c := &Calculator{prices: make(map[string]PricingModel)}
	c.loadDefaults()
	return c
}

// SetPrice registers or overrides pricing for a model.
func (c *Calculator) SetPrice(model string, price PricingModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[strings.ToLower(model)] = price
}

// Cost returns the estimated USD cost for the given usage. Unknown models
// cost zero rather than guessing.
func (c *Calculator) Cost(model string, usage types.TokenUsage) float64 {
	c.mu.RLock()
	price, ok := c.prices[strings.ToLower(model)]
	if !ok {
		price = c.prefixMatch(strings.ToLower(model))
	}
	c.mu.RUnlock()

	inputCost := (float64(usage.PromptTokens) / 1_000_000.0) * price.InputPrice
	outputCost := (float64(usage.CompletionTokens) / 1_000_000.0) * price.OutputPrice
	return inputCost + outputCost
}

// prefixMatch resolves versioned model names like "gpt-4o-2024-08-06" to
// their base pricing. Must hold at least a read lock.
func (c *Calculator) prefixMatch(model string) PricingModel {
	switch {
	case strings.HasPrefix(model, "gpt-4o-mini"):
		return c.prices["gpt-4o-mini"]
	case strings.HasPrefix(model, "gpt-4"):
		return c.prices["gpt-4o"]
	case strings.HasPrefix(model, "gpt-3.5"):
		return c.prices["gpt-3.5-turbo"]
	case strings.HasPrefix(model, "claude-3-opus"):
		return c.prices["claude-3-opus"]
	case strings.HasPrefix(model, "claude-3-haiku"):
		return c.prices["claude-3-haiku"]
	case strings.HasPrefix(model, "claude-3"):
		return c.prices["claude-3-sonnet"]
	default:
		return PricingModel{}
	}
}

func (c *Calculator) loadDefaults() {
	// OpenAI
	c.prices["gpt-4o"] = PricingModel{InputPrice: 2.50, OutputPrice: 10.00}
	c.prices["gpt-4o-mini"] = PricingModel{InputPrice: 0.15, OutputPrice: 0.60}
	c.prices["gpt-4-turbo"] = PricingModel{InputPrice: 10.00, OutputPrice: 30.00}
	c.prices["gpt-3.5-turbo"] = PricingModel{InputPrice: 0.50, OutputPrice: 1.50}

	// Anthropic
	c.prices["claude-3-5-sonnet"] = PricingModel{InputPrice: 3.00, OutputPrice: 15.00}
	c.prices["claude-3-opus"] = PricingModel{InputPrice: 15.00, OutputPrice: 75.00}
	c.prices["claude-3-sonnet"] = PricingModel{InputPrice: 3.00, OutputPrice: 15.00}
	c.prices["claude-3-haiku"] = PricingModel{InputPrice: 0.25, OutputPrice: 1.25}

	// Local inference is free at the meter; listed so lookups resolve.
	c.prices["rank_zephyr"] = PricingModel{}
	c.prices["rank_vicuna"] = PricingModel{}
}
