package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	transient := NewError(KindTransient, errors.New("connection reset"))
	mock := NewMockClient(MockReply{Err: transient})
	client := NewBreakerClient(mock, BreakerSettings{ConsecutiveFailures: 3})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Chat(ctx, []Message{NewUserMessage("hi")})
		require.Error(t, err)
		assert.Equal(t, KindTransient, KindOf(err))
	}

	// Circuit is now open; the backend is no longer called.
	_, err := client.Chat(ctx, []Message{NewUserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, KindFatal, KindOf(err))
	assert.Equal(t, 3, mock.CallCount())
}

func TestBreakerIgnoresFatalErrors(t *testing.T) {
	fatal := NewError(KindFatal, errors.New("invalid api key"))
	mock := NewMockClient(MockReply{Err: fatal})
	client := NewBreakerClient(mock, BreakerSettings{ConsecutiveFailures: 2})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.Chat(ctx, []Message{NewUserMessage("hi")})
		require.Error(t, err)
	}

	// Fatal request errors do not trip the circuit.
	assert.Equal(t, 5, mock.CallCount())
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	mock := NewMockClient(MockReply{Content: "[1] > [2]"})
	client := NewBreakerClient(mock, BreakerSettings{})

	resp, err := client.Chat(context.Background(), []Message{NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "[1] > [2]", resp.Content)
	assert.Equal(t, "mock-model", client.Model())
}
