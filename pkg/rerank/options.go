package rerank

import (
	"time"

	"github.com/soundprediction/go-rankllm/pkg/types"
)

// Default option values. Window size and stride follow the conventional
// 20/10 sliding-window setup for listwise rerankers.
const (
	DefaultWindowSize      = 20
	DefaultStride          = 10
	DefaultPasses          = 1
	DefaultRetryBudget     = 3
	DefaultRepairThreshold = 3
	DefaultMaxConcurrency  = 4
	DefaultCacheTTL        = 24 * time.Hour
)

// MaxPasses bounds the configurable pass count; each pass multiplies the
// number of model calls.
const MaxPasses = 10

// DefaultPromptBudgetPerDoc is the per-candidate character allowance used to
// derive a prompt budget when none is configured.
const DefaultPromptBudgetPerDoc = 400

// Options configures the sliding-window scheduler.
type Options struct {
	// WindowSize is the maximum number of candidates judged per model call.
	WindowSize int
	// Stride is how far the window advances between judgments. A stride
	// smaller than WindowSize overlaps windows so boundary items are
	// re-adjudicated; a stride equal to WindowSize partitions the list.
	Stride int
	// Passes is how many full sweeps to run; each pass re-slides over the
	// previous pass's output.
	Passes int
	// RetryBudget is the maximum number of re-prompts per window after the
	// initial call, shared across backend failures and unusable output.
	RetryBudget int
	// RepairThreshold is the maximum number of missing labels that repair
	// completes without re-prompting.
	RepairThreshold int
	// PromptBudget is the prompt size limit in characters. Zero derives
	// WindowSize * DefaultPromptBudgetPerDoc plus template overhead.
	PromptBudget int
	// Direction is the window sweep and fold order. Later folds override
	// earlier boundary placements. Defaults to DirectionBackward, which
	// adjudicates the head of the list last.
	Direction types.Direction
	// RankStart and RankEnd restrict reranking to [RankStart, RankEnd) of
	// the list; positions outside the range are never touched. A zero
	// RankEnd means the end of the list.
	RankStart int
	RankEnd   int
	// MaxConcurrency bounds speculative model calls for disjoint windows.
	// Overlapping windows are always judged sequentially because each fold
	// feeds the next window.
	MaxConcurrency int
	// RecordInvocations keeps per-window prompts and raw responses on the
	// result for debugging and audit.
	RecordInvocations bool
	// CacheTTL is how long cached window responses stay valid.
	CacheTTL time.Duration
}

// DefaultOptions returns the conventional configuration. Callers that build
// Options by hand get zero retries and zero repair threshold unless they say
// otherwise; a zero value is meaningful for both.
func DefaultOptions() Options {
	return Options{
		WindowSize:      DefaultWindowSize,
		Stride:          DefaultStride,
		Passes:          DefaultPasses,
		RetryBudget:     DefaultRetryBudget,
		RepairThreshold: DefaultRepairThreshold,
		Direction:       types.DirectionBackward,
		MaxConcurrency:  DefaultMaxConcurrency,
		CacheTTL:        DefaultCacheTTL,
	}
}

// withDefaults fills fields whose zero value is not meaningful.
func (o Options) withDefaults() Options {
	if o.WindowSize <= 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.Stride <= 0 {
		o.Stride = DefaultStride
	}
	if o.Stride > o.WindowSize {
		o.Stride = o.WindowSize
	}
	if o.Passes <= 0 {
		o.Passes = DefaultPasses
	}
	if o.RetryBudget < 0 {
		o.RetryBudget = 0
	}
	if o.RepairThreshold < 0 {
		o.RepairThreshold = 0
	}
	if o.PromptBudget <= 0 {
		o.PromptBudget = o.WindowSize*DefaultPromptBudgetPerDoc + 2048
	}
	if o.Direction == "" {
		o.Direction = types.DirectionBackward
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	return o
}
