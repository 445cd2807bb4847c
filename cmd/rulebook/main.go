// Package main provides the rulebook CLI for searching, annotating and
// checking rulebook content outside of the MCP server.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulekeeper/rulebook-mcp/internal/config"
	"github.com/rulekeeper/rulebook-mcp/internal/engine"
	"github.com/rulekeeper/rulebook-mcp/internal/indexing"
	"github.com/rulekeeper/rulebook-mcp/internal/phrases"
	"github.com/rulekeeper/rulebook-mcp/tools"
)

var (
	contentDir string
	limit      int
	threshold  float64
)

var rootCmd = &cobra.Command{
	Use:   "rulebook",
	Short: "Rulebook search and phrase annotation tool",
	Long: `Search rules and reference tables, annotate prose with rule phrases
and resolve tooltips against a rulebook content directory.

Without --content-dir the embedded sample rulebook is used.

Environment variables:
  RULEBOOK_CONTENT_DIR      Content directory (default: embedded)
  RULEBOOK_FUZZY_THRESHOLD  Matcher tolerance in [0,1] (default: 0.4)
  RULEBOOK_MAX_RESULTS      Default search result cap (default: 20)`,
	SilenceUsage: true,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search rules and table rows, best match first",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <text>",
	Short: "Mark registered rule phrases in text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnnotate,
}

var tooltipCmd = &cobra.Command{
	Use:   "tooltip <id>",
	Short: "Print the short explanation for a rule id",
	Args:  cobra.ExactArgs(1),
	RunE:  runTooltip,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Flatten content and report records and duplicate ids",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&contentDir, "content-dir", "", "rulebook content directory (overrides RULEBOOK_CONTENT_DIR)")
	flags.IntVar(&limit, "limit", 0, "maximum search results (0 uses RULEBOOK_MAX_RESULTS)")
	flags.Float64Var(&threshold, "threshold", -1, "matcher tolerance in [0,1] (negative uses RULEBOOK_FUZZY_THRESHOLD)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(tooltipCmd)
	rootCmd.AddCommand(indexCmd)
}

func main() {
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges command line flags over the environment
func loadConfig() config.Config {
	cfg := config.Load()
	if contentDir != "" {
		cfg.ContentDir = contentDir
	}
	if threshold >= 0 {
		cfg.FuzzyThreshold = min(threshold, 1)
	}
	if limit > 0 {
		cfg.MaxResults = limit
	}
	return cfg
}

func openEngine() (*engine.Engine, error) {
	e, err := tools.LoadEngine(loadConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to load rulebook: %w", err)
	}
	return e, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	query := strings.Join(args, " ")
	results, err := e.Search(query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No results for %q\n", query)
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. %-28s %-8s %.3f  %s\n", i+1, r.Record.ID, r.Record.Kind, r.Score, r.Record.Title)
	}
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	text := strings.Join(args, " ")
	spans := e.Annotate(text)

	var b strings.Builder
	for _, seg := range phrases.Segments(text, spans) {
		if seg.TooltipID == "" {
			b.WriteString(seg.Text)
			continue
		}
		fmt.Fprintf(&b, "[%s](%s)", seg.Text, seg.TooltipID)
	}
	fmt.Println(b.String())

	if len(spans) > 0 {
		fmt.Println()
		for _, s := range spans {
			fmt.Printf("  %4d-%-4d %-20s -> %s\n", s.Start, s.End, text[s.Start:s.End], s.TooltipID)
		}
	}
	return nil
}

func runTooltip(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	tip, ok := e.Tooltip(args[0])
	if !ok {
		return fmt.Errorf("no tooltip for %q", args[0])
	}
	fmt.Println(tip)
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	source := cfg.ContentDir
	if source == "" {
		source = "embedded sample rulebook"
	}

	log.Printf("Rulebook Content Indexer")
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("Loading content: %s", source)

	startTime := time.Now()
	e, err := tools.LoadEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to load rulebook: %w", err)
	}
	defer e.Close()

	stats := e.Stats()
	records := e.Records()
	log.Printf("✓ Flattened %d records in %v", stats.Records, time.Since(startTime).Round(time.Millisecond))

	headers := 0
	for _, r := range records {
		if r.IsHeader() {
			headers++
		}
	}

	collisions := indexing.FindCollisions(records)
	if len(collisions) > 0 {
		log.Printf("")
		log.Printf("Duplicate ids:")
		for _, c := range collisions {
			log.Printf("  %s", c)
		}
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if len(collisions) == 0 {
		log.Printf("✓ Content is consistent")
	} else {
		log.Printf("Warning: %d duplicate ids, later records shadow earlier ones in search", len(collisions))
	}
	log.Printf("")
	log.Printf("Index details:")
	log.Printf("  Records:    %d", stats.Records)
	log.Printf("  Sections:   %d (%d table and group headers)", stats.Sections, headers)
	log.Printf("  Rules:      %d", stats.Rules)
	log.Printf("  Tables:     %d", stats.Tables)
	log.Printf("  Phrases:    %d", stats.Phrases)
	log.Printf("  Tooltips:   %d", stats.Tooltips)
	return nil
}
