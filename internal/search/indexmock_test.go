package search

import (
	"fmt"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	bsearch "github.com/blevesearch/bleve/v2/search"
)

// mockIndex is a simple in-memory mock of the Index interface for testing
type mockIndex struct {
	hitIDs      []string
	docCount    uint64
	searchError error
	closeError  error
	closed      atomic.Bool
	searches    atomic.Int32
}

// newMockIndex creates a mock index that returns hitIDs for every search
func newMockIndex(hitIDs ...string) *mockIndex {
	return &mockIndex{
		hitIDs:   hitIDs,
		docCount: uint64(len(hitIDs)),
	}
}

func (m *mockIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	m.searches.Add(1)
	if m.closed.Load() {
		return nil, fmt.Errorf("index closed")
	}
	if m.searchError != nil {
		return nil, m.searchError
	}
	hits := make(bsearch.DocumentMatchCollection, 0, len(m.hitIDs))
	for i, id := range m.hitIDs {
		hits = append(hits, &bsearch.DocumentMatch{ID: id, Score: float64(len(m.hitIDs) - i)})
	}
	return &bleve.SearchResult{
		Request: req,
		Hits:    hits,
		Total:   uint64(len(hits)),
	}, nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	if m.closed.Load() {
		return fmt.Errorf("already closed")
	}
	m.closed.Store(true)
	return m.closeError
}

// IsClosed returns true if the index has been closed
func (m *mockIndex) IsClosed() bool {
	return m.closed.Load()
}
