// Package permutation turns raw model output into a window-local ordering
// and repairs imperfect orderings deterministically.
package permutation

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Status classifies the outcome of parsing one model response.
type Status int

const (
	// StatusComplete means every window position was recognized exactly once.
	StatusComplete Status = iota
	// StatusPartial means some positions were recognized but not all.
	StatusPartial
	// StatusUnparseable means no positions could be recognized.
	StatusUnparseable
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusPartial:
		return "partial"
	case StatusUnparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// ParseResult holds the recognized prefix of a window permutation.
// Positions are 0-based window indices in ranked order; the model speaks in
// 1-based labels, conversion happens here.
type ParseResult struct {
	Status    Status
	Positions []int
	Missing   int
}

var (
	bracketedLabel = regexp.MustCompile(`\[(\d+)\]`)
	bareNumber     = regexp.MustCompile(`\d+`)
	fenceRe        = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// Parse extracts a ranked list of window positions from raw model text.
// Recognized formats, tried in order:
//
//  1. a JSON payload ({"ranking": [...]} or a bare array), repaired with
//     jsonrepair to tolerate truncated or sloppy JSON
//  2. bracketed labels amid prose: "[2] > [1] > [3]"
//  3. bare numeric tokens: "2 > 1, 3"
//
// Duplicate labels keep their first occurrence; labels outside
// [1, windowSize] are dropped. Both cases count toward Missing.
func Parse(raw string, windowSize int) ParseResult {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" || windowSize <= 0 {
		return ParseResult{Status: StatusUnparseable, Missing: windowSize}
	}

	labels := parseJSONRanking(text)
	if labels == nil {
		if matches := bracketedLabel.FindAllStringSubmatch(text, -1); len(matches) > 0 {
			for _, m := range matches {
				if n, err := strconv.Atoi(m[1]); err == nil {
					labels = append(labels, n)
				}
			}
		} else {
			for _, tok := range bareNumber.FindAllString(text, -1) {
				if n, err := strconv.Atoi(tok); err == nil {
					labels = append(labels, n)
				}
			}
		}
	}

	seen := make(map[int]bool, windowSize)
	positions := make([]int, 0, windowSize)
	for _, label := range labels {
		pos := label - 1
		if pos < 0 || pos >= windowSize || seen[pos] {
			continue
		}
		seen[pos] = true
		positions = append(positions, pos)
	}

	switch {
	case len(positions) == 0:
		return ParseResult{Status: StatusUnparseable, Missing: windowSize}
	case len(positions) == windowSize:
		return ParseResult{Status: StatusComplete, Positions: positions}
	default:
		return ParseResult{
			Status:    StatusPartial,
			Positions: positions,
			Missing:   windowSize - len(positions),
		}
	}
}

// parseJSONRanking handles models instructed (or inclined) to answer in JSON.
// Returns nil when the text is not a JSON ranking payload.
func parseJSONRanking(text string) []int {
	if !strings.HasPrefix(text, "{") {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil
	}

	var obj struct {
		Ranking []int `json:"ranking"`
	}
	if err := json.Unmarshal([]byte(repaired), &obj); err == nil && len(obj.Ranking) > 0 {
		return obj.Ranking
	}
	return nil
}

func stripFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
