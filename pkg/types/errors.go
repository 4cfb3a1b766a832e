package types

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a rerank invocation has no query text.
	ErrEmptyQuery = errors.New("rankllm: query must not be empty")
	// ErrNoCandidates is returned when a rerank invocation has no candidates.
	ErrNoCandidates = errors.New("rankllm: candidate list must not be empty")
)

// CapacityError indicates that a window cannot be rendered into a prompt:
// even with document text truncated to nothing, the fixed parts of the
// prompt exceed the configured budget.
type CapacityError struct {
	Budget   int
	Required int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("rankllm: prompt requires %d characters but budget is %d", e.Required, e.Budget)
}

// WindowError wraps a fatal failure that occurred while judging one window.
// It carries the window's span within the global list for diagnosis.
type WindowError struct {
	Pass  int
	Start int
	End   int
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("rankllm: pass %d window [%d:%d): %v", e.Pass, e.Start, e.End, e.Err)
}

func (e *WindowError) Unwrap() error { return e.Err }
