package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies a backend failure. The scheduler keys its retry policy off
// the kind, never off provider-specific detail.
type Kind int

const (
	// KindTransient covers timeouts, connection resets and 5xx responses.
	// Safe to retry within the window's retry budget.
	KindTransient Kind = iota
	// KindRateLimit covers 429 responses. Retried with a longer backoff.
	KindRateLimit
	// KindFatal covers authentication, invalid-request and any other
	// non-recoverable failure. Never retried; aborts the pass.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimit:
		return "rate_limit"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a classified backend failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s backend error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with the given classification.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the classification of err, defaulting to KindFatal for
// errors that did not pass through a client.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindFatal
}

// IsRetryable reports whether err may be retried by the scheduler.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindTransient || k == KindRateLimit
}

// classifyError maps provider and network errors onto the taxonomy. Context
// cancellation is passed through unwrapped so callers can distinguish caller
// cancellation from backend failure.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTransient, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewError(classifyStatus(apiErr.HTTPStatusCode), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewError(classifyStatus(reqErr.HTTPStatusCode), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(KindTransient, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewError(KindTransient, err)
	}

	return NewError(KindFatal, err)
}

func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusRequestTimeout:
		return KindTransient
	case status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}
