package prompts

import (
	"fmt"
	"strings"

	"github.com/soundprediction/go-rankllm/pkg/llm"
	"github.com/soundprediction/go-rankllm/pkg/types"
)

// DefaultSystemMessage is the system prompt used for listwise ranking.
const DefaultSystemMessage = "You are RankLLM, an intelligent assistant that can rank passages based on their relevancy to the query."

// RankPrompt renders a window of passages plus the query into chat messages
// instructing the model to emit a relative ordering of the window.
type RankPrompt interface {
	// Build renders the prompt. Each passage is assigned the 1-based label
	// matching its window position, and passage text is truncated so the
	// whole prompt fits within budget characters. Build is deterministic
	// for identical inputs.
	Build(query string, passages []string, budget int) ([]llm.Message, error)
}

// RankPromptImpl is the single-turn listwise prompt, following the RankGPT
// format: numbered passages, then an instruction to answer "[a] > [b] > ...".
type RankPromptImpl struct {
	systemMessage string
}

// NewRankPrompt creates the default rank prompt.
func NewRankPrompt() *RankPromptImpl {
	return &RankPromptImpl{systemMessage: DefaultSystemMessage}
}

// NewRankPromptWithSystem creates a rank prompt with a custom system message.
func NewRankPromptWithSystem(systemMessage string) *RankPromptImpl {
	return &RankPromptImpl{systemMessage: systemMessage}
}

// Build implements RankPrompt.
func (p *RankPromptImpl) Build(query string, passages []string, budget int) ([]llm.Message, error) {
	n := len(passages)

	header := fmt.Sprintf(
		"I will provide you with %d passages, each indicated by a numerical identifier []. Rank the passages based on their relevance to the search query: %s.\n\n",
		n, query)
	footer := fmt.Sprintf(
		"\nSearch Query: %s.\nRank the %d passages above based on their relevance to the search query. All the passages should be included and listed using identifiers, in descending order of relevance. The output format should be [] > [], e.g., [2] > [1]. Only respond with the ranking results, do not say any word or explain.",
		query, n)

	// Fixed cost before any passage text: header, footer, and one
	// "[i] \n" line per passage.
	overhead := len([]rune(header)) + len([]rune(footer))
	for i := 1; i <= n; i++ {
		overhead += len([]rune(fmt.Sprintf("[%d] \n", i)))
	}

	remaining := budget - overhead
	if remaining < n {
		return nil, &types.CapacityError{Budget: budget, Required: overhead + n}
	}
	perPassage := remaining / n

	var b strings.Builder
	b.WriteString(header)
	for i, passage := range passages {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, truncate(collapseWhitespace(passage), perPassage)))
	}
	b.WriteString(footer)

	return []llm.Message{
		llm.NewSystemMessage(p.systemMessage),
		llm.NewUserMessage(b.String()),
	}, nil
}

// collapseWhitespace normalizes runs of whitespace to single spaces so
// passage formatting does not eat into the budget.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
