package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// UsageTracker accumulates token usage across rerank invocations and
// optionally persists the running totals to a JSON file.
type UsageTracker struct {
	path  string
	mu    sync.Mutex
	stats types.TokenUsage
}

// NewUsageTracker creates a tracker. If path is non-empty, existing totals
// are loaded from it and every update is written back.
func NewUsageTracker(path string) (*UsageTracker, error) {
	t := &UsageTracker{}
	if path == "" {
		return t, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	t.path = absPath

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if data, err := os.ReadFile(absPath); err == nil {
		if err := json.Unmarshal(data, &t.stats); err != nil {
			return nil, fmt.Errorf("failed to parse usage stats: %w", err)
		}
	}

	return t, nil
}

// Add merges usage into the running totals.
func (t *UsageTracker) Add(usage *types.TokenUsage) error {
	if usage == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Add(*usage)
	if t.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(t.stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage stats: %w", err)
	}
	return os.WriteFile(t.path, data, 0o644)
}

// Stats returns a copy of the running totals.
func (t *UsageTracker) Stats() types.TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// UsageTrackingClient wraps a Client and records the token usage of every
// successful call on a UsageTracker.
type UsageTrackingClient struct {
	client  Client
	tracker *UsageTracker
}

// NewUsageTrackingClient creates a wrapper client.
func NewUsageTrackingClient(client Client, tracker *UsageTracker) *UsageTrackingClient {
	return &UsageTrackingClient{client: client, tracker: tracker}
}

// Chat implements Client.
func (c *UsageTrackingClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	resp, err := c.client.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	if resp.TokensUsed != nil {
		if trackErr := c.tracker.Add(resp.TokensUsed); trackErr != nil {
			// Tracking failures must not fail the rerank.
			fmt.Fprintf(os.Stderr, "warning: failed to save token usage: %v\n", trackErr)
		}
	}
	return resp, nil
}

// Model implements Client.
func (c *UsageTrackingClient) Model() string {
	return c.client.Model()
}

// Close implements Client.
func (c *UsageTrackingClient) Close() error {
	return c.client.Close()
}
