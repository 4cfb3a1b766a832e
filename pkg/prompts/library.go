// Package prompts renders candidate windows into listwise ranking prompts.
package prompts

// Library defines the interface for the complete prompt library.
type Library interface {
	Rank() RankPrompt
}

// LibraryImpl implements the Library interface.
type LibraryImpl struct {
	rank RankPrompt
}

func (l *LibraryImpl) Rank() RankPrompt { return l.rank }

// NewLibrary creates a new prompt library instance.
func NewLibrary() Library {
	return &LibraryImpl{
		rank: NewRankPrompt(),
	}
}

// DefaultLibrary is the default prompt library instance.
var DefaultLibrary = NewLibrary()
