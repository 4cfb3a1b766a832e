package llm

import (
	"context"
	"sync"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// MockClient is a scripted Client for tests. Each call to Chat consumes the
// next scripted reply; when the script is exhausted the last reply repeats.
// If Func is set it takes precedence over the scripted replies.
type MockClient struct {
	mu      sync.Mutex
	replies []MockReply
	calls   []MockCall
	model   string

	// Func, when non-nil, computes the reply from the prompt messages.
	Func func(messages []Message) (string, error)
}

// MockReply is one scripted response or error.
type MockReply struct {
	Content string
	Err     error
}

// MockCall records one Chat invocation for assertions.
type MockCall struct {
	Messages []Message
}

// NewMockClient creates a mock that returns the given replies in order.
func NewMockClient(replies ...MockReply) *MockClient {
	return &MockClient{replies: replies, model: "mock-model"}
}

// Chat implements Client.
func (c *MockClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, MockCall{Messages: messages})

	if c.Func != nil {
		content, err := c.Func(messages)
		if err != nil {
			return nil, err
		}
		return &Response{
			Content:    content,
			TokensUsed: &types.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}, nil
	}

	idx := len(c.calls) - 1
	if idx >= len(c.replies) {
		idx = len(c.replies) - 1
	}
	if idx < 0 {
		return &Response{Content: ""}, nil
	}

	reply := c.replies[idx]
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &Response{
		Content:    reply.Content,
		TokensUsed: &types.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// Calls returns a copy of the recorded invocations.
func (c *MockClient) Calls() []MockCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MockCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many times Chat was invoked.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Model implements Client.
func (c *MockClient) Model() string { return c.model }

// Close implements Client.
func (c *MockClient) Close() error { return nil }
