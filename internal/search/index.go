package search

import (
	"fmt"
	"log"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/rulekeeper/rulebook-mcp/internal/indexing"
)

// Indexed field names, shared by the document mapping and the queries
const (
	FieldShortTitle = "shortTitle"
	FieldTitle      = "title"
	FieldContent    = "content"
)

const indexBatchSize = 100

// recordAnalyzer splits on word boundaries and lowercases. It keeps stop
// words so titles such as "Into the Fray" stay reachable while typing.
const recordAnalyzer = "rulebook"

// Index is an interface that abstracts bleve.Index operations
// This allows for easier testing with mocks
type Index interface {
	// Search executes a search request
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)

	// DocCount returns the number of documents in the index
	DocCount() (uint64, error)

	// Close closes the index
	Close() error
}

// bleveIndexWrapper wraps a bleve.Index to implement our Index interface
type bleveIndexWrapper struct {
	index bleve.Index
}

// NewBleveIndexWrapper wraps a bleve.Index
func NewBleveIndexWrapper(index bleve.Index) Index {
	return &bleveIndexWrapper{index: index}
}

func (w *bleveIndexWrapper) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveIndexWrapper) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndexWrapper) Close() error {
	return w.index.Close()
}

// NewMemIndex builds an in-memory bleve index over the searchable fields of
// records. A record whose id repeats an earlier one replaces it, the same
// shadowing the id lookup in the matcher applies.
func NewMemIndex(records []indexing.SearchRecord) (Index, error) {
	mapping := bleve.NewIndexMapping()
	mapping.StoreDynamic = false
	err := mapping.AddCustomAnalyzer(recordAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}
	mapping.DefaultAnalyzer = recordAnalyzer

	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory index: %w", err)
	}

	batch := index.NewBatch()
	for i, record := range records {
		if record.ID == "" {
			log.Printf("Warning: record %q has no id, not indexed", record.Title)
			continue
		}
		doc := map[string]interface{}{
			FieldShortTitle: record.ShortTitle,
			FieldTitle:      record.Title,
			FieldContent:    record.Content,
		}
		if err := batch.Index(record.ID, doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to add record %s to batch: %w", record.ID, err)
		}

		// Submit batch every indexBatchSize documents
		if (i+1)%indexBatchSize == 0 {
			if err := index.Batch(batch); err != nil {
				index.Close()
				return nil, fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	// Submit remaining
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	return NewBleveIndexWrapper(index), nil
}
