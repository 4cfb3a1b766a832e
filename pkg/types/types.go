package types

// Candidate is a document produced by first-stage retrieval. The ID must be
// stable for the duration of a rerank invocation; Score is the first-stage
// relevance score if the retriever exposes one.
type Candidate struct {
	ID    string   `json:"id"`
	Text  string   `json:"text"`
	Score *float64 `json:"score,omitempty"`
}

// RankedCandidate is a candidate with its final position after reranking.
// Rank is 0-based; Score is derived from the rank (1 / (rank+1)).
type RankedCandidate struct {
	Candidate
	Rank  int     `json:"rank"`
	Score float64 `json:"relevance_score"`
}

// Invocation records a single model call made while reranking one window.
type Invocation struct {
	ID          string `json:"id"`
	Pass        int    `json:"pass"`
	WindowStart int    `json:"window_start"`
	WindowEnd   int    `json:"window_end"`
	Attempt     int    `json:"attempt"`
	Prompt      string `json:"prompt"`
	Response    string `json:"response"`
	Repaired    bool   `json:"repaired"`
	Fallback    bool   `json:"fallback"`
}

// TokenUsage accumulates token counts across all model calls of an invocation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add merges usage from a single response into the running total.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// RerankResult is the final ordering returned to the caller. Candidates holds
// exactly the input candidate set, reordered. Invocations is populated only
// when the engine is configured to record them.
type RerankResult struct {
	Query       string            `json:"query"`
	Candidates  []RankedCandidate `json:"candidates"`
	Usage       TokenUsage        `json:"usage"`
	CostUSD     float64           `json:"cost_usd,omitempty"`
	Invocations []Invocation      `json:"invocations,omitempty"`
}

// Direction controls the order in which windows are visited and folded
// within a pass. Later folds override earlier ones on overlapping spans.
type Direction string

const (
	// DirectionBackward sweeps the window from the tail of the list toward
	// the head, so the head of the list is adjudicated last.
	DirectionBackward Direction = "backward"
	// DirectionForward sweeps from the head toward the tail.
	DirectionForward Direction = "forward"
)
