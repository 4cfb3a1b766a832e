package llm

import (
	"context"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// Client defines the interface for the generative backend used to judge
// windows. Implementations return either a successful response or an *Error
// classifying the failure; they never retry on their own. Retry policy
// belongs to the scheduler so different budgets can apply per failure class.
type Client interface {
	// Chat sends a chat completion request and returns the raw response.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// Model returns the model identifier used by this client.
	Model() string

	// Close cleans up any resources.
	Close() error
}

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role represents the role of a message sender.
type Role string

const (
	// RoleSystem represents a system message.
	RoleSystem Role = "system"
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant Role = "assistant"
)

// Response represents a chat completion response.
type Response struct {
	Content      string            `json:"content"`
	FinishReason string            `json:"finish_reason,omitempty"`
	TokensUsed   *types.TokenUsage `json:"tokens_used,omitempty"`
}

// Config holds generation parameters shared by all client implementations.
// Reranking wants deterministic output, so Temperature defaults to 0.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"`
}

// NewMessage creates a new message with the specified role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}
