package phrases

import (
	"log"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	aho "github.com/petar-dambovaliev/aho-corasick"
	"github.com/rulekeeper/rulebook-mcp/internal/content"
)

// Span is one annotated phrase occurrence. Start and End are byte offsets
// into the annotated text; Phrase is text[Start:End] as written there.
type Span struct {
	Phrase    string `json:"phrase"`
	TooltipID string `json:"tooltipId"`
	Start     int    `json:"startIndex"`
	End       int    `json:"endIndex"`
}

// Annotator finds registered phrases in prose. It is compiled once from a
// phrase registry and is safe for concurrent use.
type Annotator struct {
	automaton aho.AhoCorasick
	phrases   []string // pattern index -> registered phrase
	owners    []string // pattern index -> owning rule id
}

// Compile builds an annotator over every phrase in rules. Blank phrases are
// skipped; a phrase registered by several rules (ignoring case) belongs to
// the first of them.
func Compile(rules []content.PhraseRule) *Annotator {
	a := &Annotator{}
	seen := make(map[string]string)

	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			key := strings.ToLower(phrase)
			if owner, ok := seen[key]; ok {
				if owner != rule.ID {
					log.Printf("Warning: phrase %q registered by %s and %s, keeping %s", phrase, owner, rule.ID, owner)
				}
				continue
			}
			seen[key] = rule.ID
			a.phrases = append(a.phrases, phrase)
			a.owners = append(a.owners, rule.ID)
		}
	}

	if len(a.phrases) == 0 {
		return a
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		AsciiCaseInsensitive: true,
		DFA:                  true,
	})
	a.automaton = builder.Build(a.phrases)
	return a
}

// Len returns the number of distinct registered phrases
func (a *Annotator) Len() int {
	if a == nil {
		return 0
	}
	return len(a.phrases)
}

// Annotate returns the non-overlapping phrase spans of text in ascending
// order. Where candidates overlap, the earlier one wins, and among those
// starting at the same offset the longest wins.
func (a *Annotator) Annotate(text string) []Span {
	if a.Len() == 0 || text == "" {
		return nil
	}

	type candidate struct {
		pattern    int
		start, end int
	}

	var candidates []candidate
	iter := a.automaton.IterOverlappingByte([]byte(text))
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		if !atWordBoundary(text, m.Start(), m.End()) {
			continue
		}
		candidates = append(candidates, candidate{pattern: m.Pattern(), start: m.Start(), end: m.End()})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.start != cj.start {
			return ci.start < cj.start
		}
		if ci.end != cj.end {
			return ci.end > cj.end
		}
		return ci.pattern < cj.pattern
	})

	// Accepted spans are sorted and disjoint, so a candidate can only
	// overlap the last one accepted.
	spans := make([]Span, 0, len(candidates))
	for _, c := range candidates {
		if n := len(spans); n > 0 && c.start < spans[n-1].End {
			continue
		}
		spans = append(spans, Span{
			Phrase:    text[c.start:c.end],
			TooltipID: a.owners[c.pattern],
			Start:     c.start,
			End:       c.end,
		})
	}
	return spans
}

// atWordBoundary rejects a match that continues a word on either side.
// Edges of the phrase that are themselves punctuation need no boundary.
func atWordBoundary(text string, start, end int) bool {
	if start > 0 {
		first, _ := utf8.DecodeRuneInString(text[start:end])
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(first) && isWordRune(prev) {
			return false
		}
	}
	if end < len(text) {
		last, _ := utf8.DecodeLastRuneInString(text[start:end])
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(last) && isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
