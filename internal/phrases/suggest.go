package phrases

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Suggestion is a registered phrase that loosely matches a typed query
type Suggestion struct {
	Phrase    string `json:"phrase"`
	TooltipID string `json:"tooltipId"`
	Score     int    `json:"score"`
}

// phraseSource implements fuzzy.Source over the registered phrases
type phraseSource struct {
	phrases []string
}

func (s phraseSource) String(i int) string {
	return s.phrases[i]
}

func (s phraseSource) Len() int {
	return len(s.phrases)
}

// Suggest returns up to limit registered phrases containing the characters
// of query in order, best first. A limit of zero or less returns them all.
func (a *Annotator) Suggest(query string, limit int) []Suggestion {
	query = strings.TrimSpace(query)
	if query == "" || a.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, phraseSource{phrases: a.phrases})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	suggestions := make([]Suggestion, 0, len(matches))
	for _, match := range matches {
		suggestions = append(suggestions, Suggestion{
			Phrase:    a.phrases[match.Index],
			TooltipID: a.owners[match.Index],
			Score:     match.Score,
		})
	}
	return suggestions
}
