// Package tooltip resolves the short explanatory text shown for an
// annotated phrase.
package tooltip

import (
	"strings"
	"unicode/utf8"

	"github.com/rulekeeper/rulebook-mcp/internal/content"
)

const (
	maxParagraphRunes = 200
	truncatedRunes    = 197
	ellipsis          = "..."
)

// Resolver maps rule ids to tooltip text. The id lookup is built once and
// never modified, so a Resolver is safe for concurrent use.
type Resolver struct {
	nodes map[string]*content.RuleNode
}

// NewResolver indexes every node of the rule tree by id. When an id repeats,
// the node met first in a depth-first walk is kept.
func NewResolver(rules []content.RuleNode) *Resolver {
	r := &Resolver{nodes: make(map[string]*content.RuleNode)}
	for i := range rules {
		r.add(&rules[i])
	}
	return r
}

func (r *Resolver) add(node *content.RuleNode) {
	if node.ID != "" {
		if _, exists := r.nodes[node.ID]; !exists {
			r.nodes[node.ID] = node
		}
	}
	for i := range node.Children {
		r.add(&node.Children[i])
	}
}

// Len returns the number of resolvable ids
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.nodes)
}

// Resolve returns the tooltip text for id: the node's summary, else the
// first body paragraph (shortened past 200 characters), else its title.
// It reports false when id is unknown or the node has nothing to show.
func (r *Resolver) Resolve(id string) (string, bool) {
	if r == nil {
		return "", false
	}
	node, ok := r.nodes[id]
	if !ok {
		return "", false
	}

	if summary := strings.TrimSpace(node.Summary); summary != "" {
		return summary, true
	}
	if paragraph := strings.TrimSpace(node.Body.First()); paragraph != "" {
		return truncate(paragraph), true
	}
	if title := strings.TrimSpace(node.Title); title != "" {
		return title, true
	}
	return "", false
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxParagraphRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:truncatedRunes]) + ellipsis
}
