package dto

import "encoding/json"

// RerankRequest is the Jina-compatible rerank payload: model, query and a
// list of documents. Documents may be plain strings or {id, text, score}
// objects; plain strings get their list index as id.
type RerankRequest struct {
	Model     string     `json:"model,omitempty"`
	Query     string     `json:"query" binding:"required"`
	Documents []Document `json:"documents" binding:"required"`
	TopK      *int       `json:"top_k,omitempty"`

	// Optional engine overrides.
	WindowSize *int `json:"window_size,omitempty"`
	Stride     *int `json:"stride,omitempty"`
	Passes     *int `json:"passes,omitempty"`
}

// Document is one candidate passage.
type Document struct {
	ID    string   `json:"id,omitempty"`
	Text  string   `json:"text"`
	Score *float64 `json:"score,omitempty"`
}

// UnmarshalJSON accepts either a bare string or an {id, text, score} object.
func (d *Document) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &d.Text)
	}
	type document Document
	var obj document
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*d = Document(obj)
	return nil
}

// RerankResponse mirrors the Jina rerank API response shape.
type RerankResponse struct {
	Model   string         `json:"model"`
	Results []RankedResult `json:"results"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// RankedResult is one reranked document. Index refers to the document's
// position in the request list.
type RankedResult struct {
	Index          int     `json:"index"`
	Document       string  `json:"document"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Usage reports token consumption for the invocation.
type Usage struct {
	PromptTokens int     `json:"prompt_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
}
