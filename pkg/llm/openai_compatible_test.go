package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAICompatibleClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		apiKey  string
		model   string
		wantErr string
	}{
		{
			name:    "valid http url",
			baseURL: "http://localhost:11434",
			model:   "rank_zephyr",
		},
		{
			name:    "valid https url",
			baseURL: "https://inference.example.com",
			apiKey:  "key",
			model:   "mistral:7b",
		},
		{
			name:    "url with existing v1 path",
			baseURL: "http://localhost:8000/v1",
			model:   "rank_vicuna",
		},
		{
			name:    "empty base url",
			baseURL: "",
			model:   "m",
			wantErr: "baseURL cannot be empty",
		},
		{
			name:    "missing scheme",
			baseURL: "localhost:11434",
			model:   "m",
			wantErr: "scheme",
		},
		{
			name:    "unsupported scheme",
			baseURL: "ftp://localhost:11434",
			model:   "m",
			wantErr: "http:// or https://",
		},
		{
			name:    "empty model",
			baseURL: "http://localhost:11434",
			model:   "",
			wantErr: "model cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewOpenAICompatibleClient(tt.baseURL, tt.apiKey, tt.model, Config{})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, client.Model())
			assert.NoError(t, client.Close())
		})
	}
}

func TestHasAPIPath(t *testing.T) {
	assert.True(t, hasAPIPath("http://localhost:8000/v1"))
	assert.True(t, hasAPIPath("http://localhost:8000/api"))
	assert.True(t, hasAPIPath("http://localhost:8000/v1/"))
	assert.False(t, hasAPIPath("http://localhost:8000"))
	assert.False(t, hasAPIPath("http://localhost:8000/v2"))
}

func TestConvenienceConstructorsDefaultURLs(t *testing.T) {
	ollama, err := NewOllamaClient("", "rank_zephyr", Config{})
	require.NoError(t, err)
	assert.Equal(t, "rank_zephyr", ollama.Model())

	vllm, err := NewVLLMClient("", "rank_vicuna", Config{})
	require.NoError(t, err)
	assert.Equal(t, "rank_vicuna", vllm.Model())

	localai, err := NewLocalAIClient("", "", "gpt4all", Config{})
	require.NoError(t, err)
	assert.Equal(t, "gpt4all", localai.Model())
}
