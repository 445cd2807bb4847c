package phrases

import (
	"strings"
	"testing"

	"github.com/rulekeeper/rulebook-mcp/internal/content"
)

func sampleRegistry() []content.PhraseRule {
	return []content.PhraseRule{
		{ID: "stunned", Phrases: []string{"Stunned", "Stun"}},
		{ID: "prone", Phrases: []string{"Prone"}},
		{ID: "classes", Phrases: []string{"Character Classes"}},
		{ID: "classes-short", Phrases: []string{"Classes"}},
		{ID: "fire-ball", Phrases: []string{"Fire Ball"}},
		{ID: "ball-lightning", Phrases: []string{"Ball Lightning"}},
	}
}

func TestAnnotateSingleOccurrence(t *testing.T) {
	a := Compile([]content.PhraseRule{{ID: "stunned", Phrases: []string{"Stunned"}}})

	spans := a.Annotate("A Stunned creature loses actions.")
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d: %+v", len(spans), spans)
	}
	want := Span{Phrase: "Stunned", TooltipID: "stunned", Start: 2, End: 9}
	if spans[0] != want {
		t.Errorf("span = %+v, want %+v", spans[0], want)
	}
}

func TestAnnotateLongestMatchWins(t *testing.T) {
	a := Compile([]content.PhraseRule{
		{ID: "classes", Phrases: []string{"Character Classes"}},
		{ID: "classes-short", Phrases: []string{"Classes"}},
	})

	spans := a.Annotate("See Character Classes for options")
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].Phrase != "Character Classes" || spans[0].TooltipID != "classes" || spans[0].Start != 4 {
		t.Errorf("unexpected span %+v", spans[0])
	}
}

func TestAnnotate(t *testing.T) {
	a := Compile(sampleRegistry())

	tests := []struct {
		name     string
		text     string
		expected []string // tooltip ids in order
		phrases  []string
	}{
		{
			name:     "case insensitive",
			text:     "the target is STUNNED and prone",
			expected: []string{"stunned", "prone"},
			phrases:  []string{"STUNNED", "prone"},
		},
		{
			name:     "inside a larger word",
			text:     "Stunnedness and unprone are not conditions",
			expected: nil,
		},
		{
			name:     "punctuation delimits",
			text:     "(Prone), Stun!",
			expected: []string{"prone", "stunned"},
			phrases:  []string{"Prone", "Stun"},
		},
		{
			name:     "earlier overlapping phrase wins",
			text:     "Cast Fire Ball Lightning now",
			expected: []string{"fire-ball"},
			phrases:  []string{"Fire Ball"},
		},
		{
			name:     "shorter phrase alone",
			text:     "Classes differ.",
			expected: []string{"classes-short"},
			phrases:  []string{"Classes"},
		},
		{
			name:     "repeated phrase",
			text:     "Prone, then prone again",
			expected: []string{"prone", "prone"},
			phrases:  []string{"Prone", "prone"},
		},
		{
			name:     "no phrases",
			text:     "Nothing to see here.",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := a.Annotate(tt.text)
			if len(spans) != len(tt.expected) {
				t.Fatalf("Expected %d spans, got %d: %+v", len(tt.expected), len(spans), spans)
			}
			for i, span := range spans {
				if span.TooltipID != tt.expected[i] {
					t.Errorf("span %d tooltip = %s, want %s", i, span.TooltipID, tt.expected[i])
				}
				if span.Phrase != tt.phrases[i] {
					t.Errorf("span %d phrase = %q, want %q", i, span.Phrase, tt.phrases[i])
				}
				if tt.text[span.Start:span.End] != span.Phrase {
					t.Errorf("span %d offsets do not match phrase", i)
				}
			}
		})
	}
}

func TestAnnotateReconstructsText(t *testing.T) {
	a := Compile(sampleRegistry())

	texts := []string{
		"A Stunned creature loses actions.",
		"See Character Classes for options",
		"Stun, stun, STUN: prone Prone PRONE",
		"Fire Ball Lightning and Ball Lightning",
		"Ünïcode text with Stunned in it, and Classes",
		"",
		"Stunned",
	}

	for _, text := range texts {
		spans := a.Annotate(text)

		var b strings.Builder
		cursor := 0
		for i, span := range spans {
			if i > 0 && span.Start < spans[i-1].End {
				t.Fatalf("%q: spans %d and %d overlap", text, i-1, i)
			}
			if span.Start < cursor {
				t.Fatalf("%q: spans out of order", text)
			}
			b.WriteString(text[cursor:span.Start])
			b.WriteString(span.Phrase)
			cursor = span.End
		}
		b.WriteString(text[cursor:])

		if b.String() != text {
			t.Errorf("reconstruction = %q, want %q", b.String(), text)
		}
	}
}

func TestAnnotateEmptyRegistry(t *testing.T) {
	for _, a := range []*Annotator{nil, Compile(nil), Compile([]content.PhraseRule{{ID: "blank", Phrases: []string{"", "  "}}})} {
		if spans := a.Annotate("A Stunned creature"); len(spans) != 0 {
			t.Errorf("Expected no spans, got %+v", spans)
		}
		if a.Len() != 0 {
			t.Errorf("Len() = %d, want 0", a.Len())
		}
	}
}

func TestCompileFirstRuleOwnsDuplicatePhrase(t *testing.T) {
	a := Compile([]content.PhraseRule{
		{ID: "first", Phrases: []string{"Prone"}},
		{ID: "second", Phrases: []string{"prone", "Flat"}},
	})

	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	spans := a.Annotate("prone")
	if len(spans) != 1 || spans[0].TooltipID != "first" {
		t.Errorf("expected first rule to own phrase, got %+v", spans)
	}
}

func TestSegments(t *testing.T) {
	a := Compile(sampleRegistry())
	text := "A Stunned creature falls Prone."

	segments := Segments(text, a.Annotate(text))
	want := []Segment{
		{Text: "A "},
		{Text: "Stunned", TooltipID: "stunned"},
		{Text: " creature falls "},
		{Text: "Prone", TooltipID: "prone"},
		{Text: "."},
	}
	if len(segments) != len(want) {
		t.Fatalf("Expected %d segments, got %d: %+v", len(want), len(segments), segments)
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, segments[i], want[i])
		}
	}
}

func TestSegmentsIgnoresInvalidSpans(t *testing.T) {
	text := "abc def"
	spans := []Span{
		{TooltipID: "x", Start: 0, End: 3},
		{TooltipID: "overlap", Start: 2, End: 5},
		{TooltipID: "range", Start: 4, End: 99},
	}

	segments := Segments(text, spans)
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
		if s.TooltipID == "overlap" || s.TooltipID == "range" {
			t.Errorf("invalid span %s kept", s.TooltipID)
		}
	}
	if b.String() != text {
		t.Errorf("segments join to %q, want %q", b.String(), text)
	}
	if Segments("", spans) != nil {
		t.Error("empty text should give no segments")
	}
}

func TestSuggest(t *testing.T) {
	a := Compile(sampleRegistry())

	suggestions := a.Suggest("stn", 5)
	if len(suggestions) == 0 {
		t.Fatal("Expected suggestions")
	}
	if !strings.HasPrefix(suggestions[0].Phrase, "Stun") || suggestions[0].TooltipID != "stunned" {
		t.Errorf("top suggestion = %+v", suggestions[0])
	}

	if got := a.Suggest("a", 2); len(got) != 2 {
		t.Errorf("limit not applied, got %d", len(got))
	}
	if got := a.Suggest("   ", 5); got != nil {
		t.Errorf("blank query should give nil, got %+v", got)
	}
	if got := Compile(nil).Suggest("stun", 5); got != nil {
		t.Errorf("empty registry should give nil, got %+v", got)
	}
}
