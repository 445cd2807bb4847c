package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rulekeeper/rulebook-mcp/internal/config"
	"github.com/rulekeeper/rulebook-mcp/internal/content"
	"github.com/rulekeeper/rulebook-mcp/internal/engine"
	"github.com/rulekeeper/rulebook-mcp/internal/phrases"
	"github.com/rulekeeper/rulebook-mcp/internal/search"
	"github.com/rulekeeper/rulebook-mcp/internal/watch"
)

// embeddedContentRoot is where the sample rulebook lives inside the data provider
const embeddedContentRoot = "data/content"

// Rulebook is the read side of a built engine used by the tool handlers.
// *engine.Engine implements it; tests substitute a mock.
type Rulebook interface {
	Search(query string, limit int) ([]search.Ranked, error)
	Annotate(text string) []phrases.Span
	Tooltip(id string) (string, bool)
	Suggest(query string, limit int) []phrases.Suggestion
	Stats() engine.Stats
	Close() error
}

// BuildFunc loads content and builds a fresh Rulebook
type BuildFunc func() (Rulebook, error)

// engineHolder manages concurrent access to the current rulebook engine
type engineHolder struct {
	// current holds the active engine (atomic access for lock-free reads)
	current atomic.Pointer[Rulebook]

	// refreshMu prevents concurrent rebuilds
	// NOT used for queries - they are lock-free via atomic pointer
	refreshMu sync.Mutex

	// wg tracks in-flight queries for graceful cleanup of old engines
	wg sync.WaitGroup

	build BuildFunc
}

var (
	rulebookMgr = &engineHolder{}
	watcher     *watch.Watcher
)

// newBuildFunc returns a builder reading the configured content
func newBuildFunc(cfg config.Config) BuildFunc {
	return func() (Rulebook, error) {
		e, err := LoadEngine(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

// LoadEngine builds an engine from the configured content directory,
// or from the embedded sample rulebook when none is set
func LoadEngine(cfg config.Config) (*engine.Engine, error) {
	var (
		source content.Source
		root   string
	)
	if cfg.ContentDir != "" {
		source = NewDirDataProvider(cfg.ContentDir)
		root = "."
	} else {
		source = defaultDataProvider
		root = embeddedContentRoot
	}

	loader, err := content.NewLoader(source, root)
	if err != nil {
		return nil, err
	}
	return engine.Load(loader, engine.Options{
		Threshold:  cfg.FuzzyThreshold,
		MaxResults: cfg.MaxResults,
	})
}

// reload builds a new engine and swaps it in. The previous engine is closed
// once queries that were already running on it have finished.
func (h *engineHolder) reload() (engine.Stats, error) {
	// Serialize rebuilds
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	if h.build == nil {
		return engine.Stats{}, fmt.Errorf("no content source configured: %w", engine.ErrNotReady)
	}

	startTime := time.Now()
	rb, err := h.build()
	if err != nil {
		return engine.Stats{}, err
	}

	// ATOMIC SWAP: Replace the current engine pointer
	oldPtr := h.current.Swap(&rb)

	go func(oldPtr *Rulebook) {
		if oldPtr == nil {
			return
		}
		// Wait for all in-flight queries on the old engine to complete
		h.wg.Wait()

		old := *oldPtr
		if err := old.Close(); err != nil {
			log.Printf("Warning: Error closing old rulebook engine: %v", err)
		}
	}(oldPtr)

	log.Printf("✓ Rulebook loaded in %v", time.Since(startTime).Round(time.Millisecond))
	return rb.Stats(), nil
}

// acquire returns the current engine and a release func that must be
// called when the caller is done with it
func (h *engineHolder) acquire() (Rulebook, func(), error) {
	// Track in-flight queries (MUST be before Load)
	h.wg.Add(1)
	ptr := h.current.Load()
	if ptr == nil {
		h.wg.Done()
		return nil, func() {}, engine.ErrNotReady
	}
	return *ptr, h.wg.Done, nil
}

// close detaches the current engine and closes it after in-flight queries
func (h *engineHolder) close() error {
	ptr := h.current.Swap(nil)
	if ptr == nil {
		return nil
	}
	log.Printf("Waiting for in-flight queries to complete before closing...")
	h.wg.Wait()

	rb := *ptr
	if err := rb.Close(); err != nil {
		return err
	}
	log.Printf("✓ Rulebook engine closed successfully")
	return nil
}

// InitializeRulebook loads the configured content and builds the engine
func InitializeRulebook(cfg config.Config) error {
	log.Printf("Initializing rulebook (%s)...", cfg)
	rulebookMgr.build = newBuildFunc(cfg)

	stats, err := rulebookMgr.reload()
	if err != nil {
		return fmt.Errorf("failed to build rulebook: %w", err)
	}
	log.Printf("✓ Rulebook ready: %d records (%d sections, %d rules), %d phrases",
		stats.Records, stats.Sections, stats.Rules, stats.Phrases)
	if stats.Collisions > 0 {
		log.Printf("Warning: %d duplicate record ids, later records shadow earlier ones in search", stats.Collisions)
	}
	return nil
}

// SearchRulesInput defines input for search_rules tool
type SearchRulesInput struct {
	Query      string `json:"query" jsonschema:"Text to search for in rule titles and content"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to the server setting, max 100)"`
}

// SearchRulesOutput defines output for search_rules tool
type SearchRulesOutput struct {
	Query     string          `json:"query"`
	Results   []search.Ranked `json:"results"`
	TotalHits int             `json:"total_hits"`
}

// AnnotateTextInput defines input for annotate_text tool
type AnnotateTextInput struct {
	Text string `json:"text" jsonschema:"Prose to scan for registered rule phrases"`
}

// AnnotateTextOutput defines output for annotate_text tool
type AnnotateTextOutput struct {
	Spans    []phrases.Span    `json:"spans"`
	Segments []phrases.Segment `json:"segments"`
}

// ResolveTooltipInput defines input for resolve_tooltip tool
type ResolveTooltipInput struct {
	ID string `json:"id" jsonschema:"Tooltip id from an annotated span (a rule id)"`
}

// ResolveTooltipOutput defines output for resolve_tooltip tool
type ResolveTooltipOutput struct {
	ID      string `json:"id"`
	Found   bool   `json:"found"`
	Content string `json:"content,omitempty"`
}

// SuggestTermsInput defines input for suggest_terms tool
type SuggestTermsInput struct {
	Query      string `json:"query" jsonschema:"Partial phrase typed by the user"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of suggestions (optional)"`
}

// SuggestTermsOutput defines output for suggest_terms tool
type SuggestTermsOutput struct {
	Query       string               `json:"query"`
	Suggestions []phrases.Suggestion `json:"suggestions"`
}

// ReloadContentInput defines input for reload_content tool
type ReloadContentInput struct{}

// ReloadContentOutput defines output for reload_content tool
type ReloadContentOutput struct {
	Reloaded bool         `json:"reloaded"`
	Stats    engine.Stats `json:"stats"`
	Message  string       `json:"message"`
}

// SearchRules runs an approximate search over the rulebook
func SearchRules(ctx context.Context, req *mcp.CallToolRequest, input SearchRulesInput) (*mcp.CallToolResult, SearchRulesOutput, error) {
	rb, release, err := rulebookMgr.acquire()
	defer release()
	if err != nil {
		return nil, SearchRulesOutput{}, err
	}

	results, err := rb.Search(input.Query, input.MaxResults)
	if err != nil {
		return nil, SearchRulesOutput{}, fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []search.Ranked{}
	}

	return nil, SearchRulesOutput{
		Query:     input.Query,
		Results:   results,
		TotalHits: len(results),
	}, nil
}

// AnnotateText marks registered phrases in a piece of prose
func AnnotateText(ctx context.Context, req *mcp.CallToolRequest, input AnnotateTextInput) (*mcp.CallToolResult, AnnotateTextOutput, error) {
	rb, release, err := rulebookMgr.acquire()
	defer release()
	if err != nil {
		return nil, AnnotateTextOutput{}, err
	}

	spans := rb.Annotate(input.Text)
	if spans == nil {
		spans = []phrases.Span{}
	}
	segments := phrases.Segments(input.Text, spans)
	if segments == nil {
		segments = []phrases.Segment{}
	}

	return nil, AnnotateTextOutput{Spans: spans, Segments: segments}, nil
}

// ResolveTooltip returns the explanatory text for a tooltip id
func ResolveTooltip(ctx context.Context, req *mcp.CallToolRequest, input ResolveTooltipInput) (*mcp.CallToolResult, ResolveTooltipOutput, error) {
	rb, release, err := rulebookMgr.acquire()
	defer release()
	if err != nil {
		return nil, ResolveTooltipOutput{}, err
	}

	text, ok := rb.Tooltip(input.ID)
	return nil, ResolveTooltipOutput{ID: input.ID, Found: ok, Content: text}, nil
}

// SuggestTerms lists registered phrases loosely matching a partial query
func SuggestTerms(ctx context.Context, req *mcp.CallToolRequest, input SuggestTermsInput) (*mcp.CallToolResult, SuggestTermsOutput, error) {
	rb, release, err := rulebookMgr.acquire()
	defer release()
	if err != nil {
		return nil, SuggestTermsOutput{}, err
	}

	suggestions := rb.Suggest(input.Query, input.MaxResults)
	if suggestions == nil {
		suggestions = []phrases.Suggestion{}
	}
	return nil, SuggestTermsOutput{Query: input.Query, Suggestions: suggestions}, nil
}

// ReloadContent rebuilds the engine from the content source
func ReloadContent(ctx context.Context, req *mcp.CallToolRequest, input ReloadContentInput) (*mcp.CallToolResult, ReloadContentOutput, error) {
	stats, err := rulebookMgr.reload()
	if err != nil {
		return nil, ReloadContentOutput{}, fmt.Errorf("reload failed: %w", err)
	}

	return nil, ReloadContentOutput{
		Reloaded: true,
		Stats:    stats,
		Message:  fmt.Sprintf("Rulebook reloaded, %d records and %d phrases indexed", stats.Records, stats.Phrases),
	}, nil
}

// RegisterRulebookTools builds the engine and registers the rulebook tools
func RegisterRulebookTools(server *mcp.Server, cfg config.Config) error {
	if err := InitializeRulebook(cfg); err != nil {
		return err
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_rules",
			Description: "Typo-tolerant search over rule sections and reference table rows (weapons, armour, traits, abilities). Returns records best first.",
		},
		SearchRules,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "annotate_text",
			Description: "Find registered rule phrases in prose. Returns non-overlapping spans with tooltip ids and the text split into segments.",
		},
		AnnotateText,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "resolve_tooltip",
			Description: "Resolve the short explanation for a tooltip id returned by annotate_text",
		},
		ResolveTooltip,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "suggest_terms",
			Description: "Suggest registered rule phrases for a partially typed term",
		},
		SuggestTerms,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "reload_content",
			Description: "Reload rulebook content from its source and rebuild the search index",
		},
		ReloadContent,
	)

	if cfg.Watch {
		if err := watchContent(cfg.ContentDir); err != nil {
			log.Printf("Warning: Content watching disabled: %v", err)
		}
	}

	return nil
}

// watchContent rebuilds the engine whenever the content directory changes
func watchContent(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}

	w, err := watch.NewWatcher(watch.DefaultDelay)
	if err != nil {
		return err
	}
	err = w.Watch(dir, func() {
		log.Printf("Content changed in %s, rebuilding...", dir)
		if _, err := rulebookMgr.reload(); err != nil {
			// Keep serving the previous engine
			log.Printf("Warning: Rebuild failed, keeping previous content: %v", err)
		}
	})
	if err != nil {
		w.Stop()
		return err
	}

	watcher = w
	log.Printf("✓ Watching %s for content changes", dir)
	return nil
}

// CloseRulebook stops watching and closes the current engine
func CloseRulebook() error {
	var closeErr error

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			closeErr = err
		}
		watcher = nil
	}

	if err := rulebookMgr.close(); err != nil {
		log.Printf("Error closing rulebook: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}
