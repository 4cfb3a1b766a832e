package llm

import (
	"context"
	"fmt"
	"net/url"

	openai "github.com/sashabaranov/go-openai"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// OpenAICompatibleClient implements the Client interface for any
// OpenAI-compatible API: Ollama, LocalAI, vLLM, Text Generation Inference
// and other self-hosted inference servers. This lets the scheduler drive a
// local ranking model with the same code path as a hosted one.
type OpenAICompatibleClient struct {
	client *openai.Client
	config Config
}

// NewOpenAICompatibleClient creates a client for an OpenAI-compatible service.
//
// Parameters:
//   - baseURL: service base URL (e.g., "http://localhost:11434" for Ollama)
//   - apiKey: API key, empty if the service does not require one
//   - model: model name (e.g., "rank_zephyr", "mistral:7b")
//   - config: generation parameters
func NewOpenAICompatibleClient(baseURL, apiKey, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL format: %w", err)
	}
	if parsedURL.Scheme == "" {
		return nil, fmt.Errorf("baseURL must include scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("baseURL must use http:// or https:// scheme")
	}

	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	config.Model = model

	// Some services reject requests without an Authorization header even
	// when they ignore its value.
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL
	// Many services expect "/v1" appended to the base URL.
	if !hasAPIPath(baseURL) {
		clientConfig.BaseURL = baseURL + "/v1"
	}

	return &OpenAICompatibleClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Chat sends a chat completion request to the OpenAI-compatible service.
func (c *OpenAICompatibleClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	req := buildChatRequest(c.config, messages)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(KindTransient, fmt.Errorf("no choices returned from backend"))
	}

	choice := resp.Choices[0]
	response := &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	if resp.Usage.TotalTokens > 0 {
		response.TokensUsed = &types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return response, nil
}

// Model returns the configured model identifier.
func (c *OpenAICompatibleClient) Model() string {
	return c.config.Model
}

// Close cleans up resources (no-op for OpenAI-compatible client).
func (c *OpenAICompatibleClient) Close() error {
	return nil
}

// hasAPIPath checks if the base URL already includes an API path component.
func hasAPIPath(baseURL string) bool {
	commonPaths := []string{"/v1", "/api", "/v1/", "/api/"}
	for _, path := range commonPaths {
		if len(baseURL) >= len(path) && baseURL[len(baseURL)-len(path):] == path {
			return true
		}
	}
	return false
}

// NewOllamaClient creates a client for a local Ollama instance.
func NewOllamaClient(baseURL, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return NewOpenAICompatibleClient(baseURL, "", model, config)
}

// NewVLLMClient creates a client for a vLLM server.
func NewVLLMClient(baseURL, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return NewOpenAICompatibleClient(baseURL, "", model, config)
}

// NewLocalAIClient creates a client for a LocalAI instance.
func NewLocalAIClient(baseURL, apiKey, model string, config Config) (*OpenAICompatibleClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return NewOpenAICompatibleClient(baseURL, apiKey, model, config)
}
