// Package rerank implements the sliding-window scheduler that drives
// listwise reranking: it partitions the candidate list into bounded windows,
// obtains a relative ordering of each window from the model, repairs
// imperfect output, and folds window orderings back into the global list.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soundprediction/go-rankllm/pkg/cache"
	"github.com/soundprediction/go-rankllm/pkg/llm"
	"github.com/soundprediction/go-rankllm/pkg/permutation"
	"github.com/soundprediction/go-rankllm/pkg/prompts"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

// Scheduler runs sliding-window passes over a candidate list. It owns the
// retry, repair and fold policy; the llm.Client stays policy-free.
type Scheduler struct {
	client  llm.Client
	library prompts.Library
	cache   cache.Cache
	logger  *slog.Logger
	opts    Options
}

// NewScheduler creates a scheduler. library and logger may be nil, in which
// case the default prompt library and a no-op logger are used.
func NewScheduler(client llm.Client, library prompts.Library, logger *slog.Logger, opts Options) *Scheduler {
	if library == nil {
		library = prompts.DefaultLibrary
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		client:  client,
		library: library,
		logger:  logger,
		opts:    opts.withDefaults(),
	}
}

// WithCache attaches a response cache and returns the scheduler.
func (s *Scheduler) WithCache(c cache.Cache) *Scheduler {
	s.cache = c
	return s
}

// Options returns the scheduler's effective (defaulted) options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// PassResult is the outcome of one full sweep.
type PassResult struct {
	Order       []types.Candidate
	Usage       types.TokenUsage
	Invocations []types.Invocation
}

// span is a window's position within the global list.
type span struct {
	start, end int
}

func (sp span) size() int { return sp.end - sp.start }

// RunPass sweeps one pass over order and returns the new order. The input
// slice is not mutated. A window whose output stays unusable after retries
// degrades to its pre-pass order; a fatal backend failure or capacity
// overflow aborts the pass with a *types.WindowError.
func (s *Scheduler) RunPass(ctx context.Context, pass int, query string, order []types.Candidate) (*PassResult, error) {
	result := &PassResult{Order: append([]types.Candidate(nil), order...)}

	start, end := s.passRange(len(order))
	if end-start < 2 {
		return result, nil
	}

	spans := windowSpans(start, end, s.opts.WindowSize, s.opts.Stride, s.opts.Direction)

	// Disjoint windows read disjoint slices of the pre-pass order, so
	// their model calls can run speculatively in parallel. Overlapping
	// windows are inherently sequential: each fold feeds the next window.
	if s.opts.Stride >= s.opts.WindowSize && s.opts.MaxConcurrency > 1 && len(spans) > 1 {
		return s.runPassSpeculative(ctx, pass, query, result, spans)
	}

	for _, sp := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		judgment, err := s.judgeWindow(ctx, pass, query, windowOf(result.Order, sp), sp)
		if err != nil {
			return nil, err
		}
		s.absorb(result, judgment, sp)
	}

	return result, nil
}

// runPassSpeculative judges all windows concurrently, then folds the results
// in the configured span order so the outcome is identical to the sequential
// schedule.
func (s *Scheduler) runPassSpeculative(ctx context.Context, pass int, query string, result *PassResult, spans []span) (*PassResult, error) {
	judgments := make([]*windowJudgment, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, sp := range spans {
		i, sp := i, sp
		g.Go(func() error {
			judgment, err := s.judgeWindow(gctx, pass, query, windowOf(result.Order, sp), sp)
			if err != nil {
				return err
			}
			judgments[i] = judgment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, sp := range spans {
		s.absorb(result, judgments[i], sp)
	}
	return result, nil
}

// absorb folds one window judgment into the running pass result.
func (s *Scheduler) absorb(result *PassResult, judgment *windowJudgment, sp span) {
	fold(result.Order, sp, judgment.perm)
	result.Usage.Add(judgment.usage)
	if s.opts.RecordInvocations {
		result.Invocations = append(result.Invocations, judgment.invocations...)
	}
}

// passRange clamps the configured rank range to the list bounds.
func (s *Scheduler) passRange(n int) (int, int) {
	start := s.opts.RankStart
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := s.opts.RankEnd
	if end <= 0 || end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

// windowSpans enumerates window positions over [start, end) in sweep order.
// The forward sweep anchors windows at the head; the backward sweep anchors
// at the tail, matching the convention of refining the top of the list last.
func windowSpans(start, end, windowSize, stride int, direction types.Direction) []span {
	if end-start <= 0 {
		return nil
	}
	if windowSize >= end-start {
		return []span{{start: start, end: end}}
	}

	var spans []span
	if direction == types.DirectionForward {
		for pos := start; ; pos += stride {
			e := pos + windowSize
			if e > end {
				e = end
			}
			spans = append(spans, span{start: pos, end: e})
			if e >= end {
				break
			}
		}
	} else {
		for e := end; ; e -= stride {
			pos := e - windowSize
			if pos < start {
				pos = start
			}
			spans = append(spans, span{start: pos, end: e})
			if pos <= start {
				break
			}
		}
	}
	return spans
}

// windowOf copies the window's slice of the current order.
func windowOf(order []types.Candidate, sp span) []types.Candidate {
	window := make([]types.Candidate, sp.size())
	copy(window, order[sp.start:sp.end])
	return window
}

// fold applies a window-local permutation back into the global order.
// Positions outside the span are untouched; the permutation is a bijection
// over window indices, so the candidate set is conserved.
func fold(order []types.Candidate, sp span, perm []int) {
	window := windowOf(order, sp)
	for i, p := range perm {
		order[sp.start+i] = window[p]
	}
}

// windowJudgment is the outcome of judging one window.
type windowJudgment struct {
	perm        []int
	usage       types.TokenUsage
	invocations []types.Invocation
}

// judgeWindow drives one window through prompt, model, parse and repair.
// Returned errors are pass-fatal; recoverable problems degrade to the
// identity permutation.
func (s *Scheduler) judgeWindow(ctx context.Context, pass int, query string, window []types.Candidate, sp span) (*windowJudgment, error) {
	judgment := &windowJudgment{}
	size := len(window)

	// A single-item window has no reordering power; skip the model call.
	if size < 2 {
		judgment.perm = permutation.Identity(size)
		return judgment, nil
	}

	passages := make([]string, size)
	for i, c := range window {
		passages[i] = c.Text
	}

	messages, err := s.library.Rank().Build(query, passages, s.opts.PromptBudget)
	if err != nil {
		// Capacity overflow is a configuration problem; retrying the
		// same budget cannot help.
		return nil, &types.WindowError{Pass: pass, Start: sp.start, End: sp.end, Err: err}
	}
	promptText := renderMessages(messages)

	if perm, raw, ok := s.cachedPerm(promptText, size); ok {
		judgment.perm = perm
		s.record(judgment, pass, sp, 0, promptText, raw, false, false)
		return judgment, nil
	}

	maxAttempts := s.opts.RetryBudget + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := s.client.Chat(ctx, messages)
		if err != nil {
			// Caller cancellation propagates; a per-call timeout is a
			// transient failure that counts against the retry budget.
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil, err
			}
			if !llm.IsRetryable(err) {
				return nil, &types.WindowError{Pass: pass, Start: sp.start, End: sp.end, Err: err}
			}
			s.logger.Warn("window model call failed",
				"pass", pass, "window_start", sp.start, "window_end", sp.end,
				"attempt", attempt, "error", err)
			if attempt+1 < maxAttempts {
				if err := s.backoff(ctx, err, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.TokensUsed != nil {
			judgment.usage.Add(*resp.TokensUsed)
		}

		parsed := permutation.Parse(resp.Content, size)
		perm, ok := permutation.Repair(parsed, size, s.opts.RepairThreshold)
		if ok {
			judgment.perm = perm
			s.record(judgment, pass, sp, attempt, promptText, resp.Content, parsed.Status != permutation.StatusComplete, false)
			s.storePerm(promptText, resp.Content)
			return judgment, nil
		}

		s.logger.Warn("window output not usable",
			"pass", pass, "window_start", sp.start, "window_end", sp.end,
			"attempt", attempt, "status", parsed.Status.String(), "missing", parsed.Missing)
		s.record(judgment, pass, sp, attempt, promptText, resp.Content, false, false)
	}

	// Budget exhausted: leave the window in its pre-pass order rather than
	// failing the whole rerank.
	s.logger.Warn("window degraded to identity order",
		"pass", pass, "window_start", sp.start, "window_end", sp.end)
	judgment.perm = permutation.Identity(size)
	s.record(judgment, pass, sp, maxAttempts, promptText, "", false, true)
	return judgment, nil
}

// cachedPerm returns a usable permutation from the response cache, if any.
func (s *Scheduler) cachedPerm(promptText string, size int) ([]int, string, bool) {
	if s.cache == nil {
		return nil, "", false
	}
	raw, err := s.cache.Get(cache.ResponseKey(s.client.Model(), promptText))
	if err != nil {
		return nil, "", false
	}
	parsed := permutation.Parse(string(raw), size)
	perm, ok := permutation.Repair(parsed, size, s.opts.RepairThreshold)
	if !ok {
		return nil, "", false
	}
	return perm, string(raw), true
}

// storePerm caches the raw response that produced a usable permutation.
func (s *Scheduler) storePerm(promptText, raw string) {
	if s.cache == nil {
		return
	}
	key := cache.ResponseKey(s.client.Model(), promptText)
	if err := s.cache.Set(key, []byte(raw), s.opts.CacheTTL); err != nil {
		s.logger.Warn("failed to cache window response", "error", err)
	}
}

// record appends an invocation entry when recording is enabled.
func (s *Scheduler) record(judgment *windowJudgment, pass int, sp span, attempt int, prompt, response string, repaired, fallback bool) {
	if !s.opts.RecordInvocations {
		return
	}
	judgment.invocations = append(judgment.invocations, types.Invocation{
		ID:          uuid.NewString(),
		Pass:        pass,
		WindowStart: sp.start,
		WindowEnd:   sp.end,
		Attempt:     attempt,
		Prompt:      prompt,
		Response:    response,
		Repaired:    repaired,
		Fallback:    fallback,
	})
}

// backoff sleeps between retries; rate-limit failures wait longer than
// ordinary transient ones. The sleep is interruptible by ctx.
func (s *Scheduler) backoff(ctx context.Context, err error, attempt int) error {
	base := 200 * time.Millisecond
	if llm.KindOf(err) == llm.KindRateLimit {
		base = time.Second
	}
	delay := base << attempt

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// renderMessages flattens chat messages into one string for cache keys and
// invocation records.
func renderMessages(messages []llm.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}
