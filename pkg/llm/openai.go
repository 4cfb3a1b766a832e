package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// OpenAIClient implements the Client interface for OpenAI's hosted models.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string, config Config) *OpenAIClient {
	client := openai.NewClient(apiKey)

	if config.Model == "" {
		config.Model = openai.GPT4o
	}

	return &OpenAIClient{
		client: client,
		config: config,
	}
}

// Chat sends a chat completion request to OpenAI. Failures are returned as
// classified *Error values.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	req := buildChatRequest(c.config, messages)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(KindTransient, fmt.Errorf("no choices returned from openai"))
	}

	choice := resp.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		TokensUsed: &types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.config.Model
}

// Close cleans up resources (no-op for OpenAI client).
func (c *OpenAIClient) Close() error {
	return nil
}

// buildChatRequest constructs the chat completion request shared by the
// OpenAI and OpenAI-compatible clients.
func buildChatRequest(config Config, messages []Message) openai.ChatCompletionRequest {
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    config.Model,
		Messages: openaiMessages,
	}

	if config.Temperature != nil {
		req.Temperature = *config.Temperature
	}
	if config.MaxTokens != nil {
		req.MaxTokens = *config.MaxTokens
	}
	if config.TopP != nil {
		req.TopP = *config.TopP
	}
	if len(config.Stop) > 0 {
		req.Stop = config.Stop
	}

	return req
}
