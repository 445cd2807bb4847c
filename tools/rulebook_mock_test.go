package tools

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rulekeeper/rulebook-mcp/internal/engine"
	"github.com/rulekeeper/rulebook-mcp/internal/indexing"
	"github.com/rulekeeper/rulebook-mcp/internal/phrases"
	"github.com/rulekeeper/rulebook-mcp/internal/search"
)

// mockRulebook is a simple in-memory Rulebook for testing
type mockRulebook struct {
	generation int
	records    int
	closed     atomic.Bool
}

func newMockRulebook(generation int) *mockRulebook {
	return &mockRulebook{generation: generation, records: 100}
}

func (m *mockRulebook) Search(query string, limit int) ([]search.Ranked, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("rulebook closed")
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	id := fmt.Sprintf("gen-%d", m.generation)
	return []search.Ranked{{Record: indexing.SearchRecord{ID: id, ShortTitle: query}, Score: 0.1}}, nil
}

func (m *mockRulebook) Annotate(text string) []phrases.Span {
	i := strings.Index(text, "Stunned")
	if i < 0 {
		return nil
	}
	return []phrases.Span{{Phrase: "Stunned", TooltipID: "stunned", Start: i, End: i + len("Stunned")}}
}

func (m *mockRulebook) Tooltip(id string) (string, bool) {
	if id == "stunned" {
		return "Loses the next action.", true
	}
	return "", false
}

func (m *mockRulebook) Suggest(query string, limit int) []phrases.Suggestion {
	return []phrases.Suggestion{{Phrase: "Stunned", TooltipID: "stunned"}}
}

func (m *mockRulebook) Stats() engine.Stats {
	return engine.Stats{Records: m.records, Phrases: 1}
}

func (m *mockRulebook) Close() error {
	if m.closed.Swap(true) {
		return fmt.Errorf("already closed")
	}
	return nil
}

// IsClosed returns true if the rulebook has been closed
func (m *mockRulebook) IsClosed() bool {
	return m.closed.Load()
}
