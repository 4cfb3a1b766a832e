package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{
			name: "rate limit status",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			kind: KindRateLimit,
		},
		{
			name: "server error status",
			err:  &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			kind: KindTransient,
		},
		{
			name: "bad gateway status",
			err:  &openai.APIError{HTTPStatusCode: http.StatusBadGateway},
			kind: KindTransient,
		},
		{
			name: "request timeout status",
			err:  &openai.APIError{HTTPStatusCode: http.StatusRequestTimeout},
			kind: KindTransient,
		},
		{
			name: "auth failure status",
			err:  &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			kind: KindFatal,
		},
		{
			name: "invalid request status",
			err:  &openai.APIError{HTTPStatusCode: http.StatusBadRequest},
			kind: KindFatal,
		},
		{
			name: "request error with server status",
			err:  &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable},
			kind: KindTransient,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			kind: KindTransient,
		},
		{
			name: "unknown error defaults to fatal",
			err:  errors.New("something odd"),
			kind: KindFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyError(tt.err)
			assert.Equal(t, tt.kind, KindOf(classified))
		})
	}
}

func TestClassifyErrorPassesThroughCancellation(t *testing.T) {
	classified := classifyError(context.Canceled)
	assert.True(t, errors.Is(classified, context.Canceled))

	var le *Error
	assert.False(t, errors.As(classified, &le))
}

func TestClassifyErrorNil(t *testing.T) {
	assert.NoError(t, classifyError(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(KindTransient, errors.New("x"))))
	assert.True(t, IsRetryable(NewError(KindRateLimit, errors.New("x"))))
	assert.False(t, IsRetryable(NewError(KindFatal, errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("unclassified")))
}

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	wrapped := fmt.Errorf("window 3 failed: %w", NewError(KindRateLimit, errors.New("429")))
	assert.Equal(t, KindRateLimit, KindOf(wrapped))
}

func TestErrorString(t *testing.T) {
	err := NewError(KindTransient, errors.New("boom"))
	assert.Contains(t, err.Error(), "transient")
	assert.Contains(t, err.Error(), "boom")
}
