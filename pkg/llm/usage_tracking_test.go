package llm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageTrackingClient(t *testing.T) {
	tracker, err := NewUsageTracker("")
	require.NoError(t, err)

	mock := NewMockClient(llmReply("[2] > [1]"))
	client := NewUsageTrackingClient(mock, tracker)

	for i := 0; i < 3; i++ {
		_, err := client.Chat(context.Background(), []Message{NewUserMessage("hi")})
		require.NoError(t, err)
	}

	stats := tracker.Stats()
	assert.Equal(t, 30, stats.PromptTokens)
	assert.Equal(t, 15, stats.CompletionTokens)
	assert.Equal(t, 45, stats.TotalTokens)
}

func TestUsageTrackerPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")

	tracker, err := NewUsageTracker(path)
	require.NoError(t, err)

	mock := NewMockClient(llmReply("[1]"))
	client := NewUsageTrackingClient(mock, tracker)
	_, err = client.Chat(context.Background(), []Message{NewUserMessage("hi")})
	require.NoError(t, err)

	// A fresh tracker picks up the persisted totals.
	reloaded, err := NewUsageTracker(path)
	require.NoError(t, err)
	assert.Equal(t, tracker.Stats(), reloaded.Stats())
	assert.Equal(t, 15, reloaded.Stats().TotalTokens)
}

func llmReply(content string) MockReply {
	return MockReply{Content: content}
}
