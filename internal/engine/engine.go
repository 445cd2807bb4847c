// Package engine builds the searchable, annotatable view of a rulebook once
// and serves read-only queries over it.
package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rulekeeper/rulebook-mcp/internal/content"
	"github.com/rulekeeper/rulebook-mcp/internal/indexing"
	"github.com/rulekeeper/rulebook-mcp/internal/phrases"
	"github.com/rulekeeper/rulebook-mcp/internal/search"
	"github.com/rulekeeper/rulebook-mcp/internal/tooltip"
)

// ErrNotReady is returned when no content has been loaded yet
var ErrNotReady = errors.New("rulebook engine not ready")

const (
	// DefaultMaxResults caps search results when the caller gives no limit
	DefaultMaxResults = 20

	// MaxResults is the hard cap on any search
	MaxResults = 100
)

// Options configures Build
type Options struct {
	Threshold  float64 // Matcher tolerance in [0,1]; 0 uses search.DefaultThreshold
	MaxResults int     // Default result cap; 0 uses DefaultMaxResults
}

// Stats summarizes what an engine was built from
type Stats struct {
	Records    int `json:"records"`
	Sections   int `json:"sections"`
	Rules      int `json:"rules"`
	Tables     int `json:"tables"`
	Phrases    int `json:"phrases"`
	Tooltips   int `json:"tooltips"`
	Collisions int `json:"collisions"`
}

// Engine is immutable after Build and safe for concurrent use
type Engine struct {
	records    []indexing.SearchRecord
	matcher    *search.Matcher
	annotator  *phrases.Annotator
	resolver   *tooltip.Resolver
	maxResults int
	stats      Stats
}

// Build flattens book, indexes it and compiles its phrase registry.
// Duplicate record ids are logged, not fixed.
func Build(book content.Book, opts Options) (*Engine, error) {
	startTime := time.Now()

	records := indexing.Flatten(book.Rules, book.Tables)
	collisions := indexing.WarnCollisions(records)

	matcher, err := search.NewMatcher(records, search.Options{Threshold: opts.Threshold})
	if err != nil {
		return nil, fmt.Errorf("failed to build matcher: %w", err)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxResults {
		maxResults = MaxResults
	}

	e := &Engine{
		records:    records,
		matcher:    matcher,
		annotator:  phrases.Compile(book.Phrases),
		resolver:   tooltip.NewResolver(book.Rules),
		maxResults: maxResults,
	}

	e.stats = Stats{
		Records:    len(records),
		Tables:     len(book.Tables),
		Phrases:    e.annotator.Len(),
		Tooltips:   e.resolver.Len(),
		Collisions: collisions,
	}
	for _, record := range records {
		if record.Kind == indexing.KindSection {
			e.stats.Sections++
		} else {
			e.stats.Rules++
		}
	}

	log.Printf("✓ Rulebook engine built (%d records, %d phrases, %d collisions) in %v",
		e.stats.Records, e.stats.Phrases, e.stats.Collisions, time.Since(startTime).Round(time.Millisecond))

	return e, nil
}

// Load reads content through loader and builds an engine from it
func Load(loader *content.Loader, opts Options) (*Engine, error) {
	book, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return Build(book, opts)
}

// Search matches query and returns at most limit ranked records. A limit of
// zero or less uses the engine default; no limit exceeds MaxResults.
func (e *Engine) Search(query string, limit int) ([]search.Ranked, error) {
	if e == nil {
		return nil, ErrNotReady
	}

	matches, err := e.matcher.Match(query)
	if err != nil {
		return nil, err
	}

	ranked := search.RankScored(query, matches)

	if limit <= 0 {
		limit = e.maxResults
	}
	if limit > MaxResults {
		limit = MaxResults
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Annotate returns the phrase spans of text
func (e *Engine) Annotate(text string) []phrases.Span {
	if e == nil {
		return nil
	}
	return e.annotator.Annotate(text)
}

// Tooltip resolves the tooltip text for a rule id
func (e *Engine) Tooltip(id string) (string, bool) {
	if e == nil {
		return "", false
	}
	return e.resolver.Resolve(id)
}

// Suggest returns registered phrases loosely matching query. Limits behave
// as in Search.
func (e *Engine) Suggest(query string, limit int) []phrases.Suggestion {
	if e == nil {
		return nil
	}
	if limit <= 0 {
		limit = e.maxResults
	}
	if limit > MaxResults {
		limit = MaxResults
	}
	return e.annotator.Suggest(query, limit)
}

// Records returns the flattened records in index order. Callers must not
// modify the returned slice.
func (e *Engine) Records() []indexing.SearchRecord {
	if e == nil {
		return nil
	}
	return e.records
}

// Stats returns build statistics
func (e *Engine) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	return e.stats
}

// Close releases the search index
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	return e.matcher.Close()
}
