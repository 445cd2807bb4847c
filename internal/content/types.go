package content

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RuleNode is one node of the hierarchical rulebook
type RuleNode struct {
	ID       string     `yaml:"id" json:"id"`
	Title    string     `yaml:"title" json:"title"`
	Summary  string     `yaml:"summary,omitempty" json:"summary,omitempty"`
	Body     Paragraphs `yaml:"body,omitempty" json:"body,omitempty"`
	Children []RuleNode `yaml:"children,omitempty" json:"children,omitempty"`
}

// Paragraphs holds a rule body. Authors may write it as a single string
// or as a list of paragraphs; both decode to the same value.
type Paragraphs []string

// First returns the first paragraph, or "" when the body is empty
func (p Paragraphs) First() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// UnmarshalYAML accepts a scalar or a sequence of scalars
func (p *Paragraphs) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*p = nil
			return nil
		}
		*p = Paragraphs{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("body: %w", err)
		}
		*p = Paragraphs(list)
		return nil
	default:
		return fmt.Errorf("body: expected string or list of strings (line %d)", value.Line)
	}
}

// UnmarshalJSON accepts a string or an array of strings
func (p *Paragraphs) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = Paragraphs{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("body: expected string or list of strings: %w", err)
	}
	*p = Paragraphs(list)
	return nil
}

// Table kinds shipped with the rulebook
const (
	KindWeapons        = "weapons"
	KindArmour         = "armour"
	KindTraits         = "traits"
	KindCoreAbilities  = "core-abilities"
	KindClassAbilities = "class-abilities"
)

// ReferenceTable is a flat table of rows. Grouped tables (traits by trait
// group, class abilities by class) carry a group key on every row.
type ReferenceTable struct {
	Kind    string     `yaml:"kind" json:"kind"`
	Title   string     `yaml:"title" json:"title"`
	Grouped bool       `yaml:"grouped,omitempty" json:"grouped,omitempty"`
	Rows    []TableRow `yaml:"rows" json:"rows"`
}

// TableRow is one row of a reference table
type TableRow struct {
	Name        string            `yaml:"name" json:"name"`
	Group       string            `yaml:"group,omitempty" json:"group,omitempty"`
	GroupTitle  string            `yaml:"group_title,omitempty" json:"group_title,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Notes       string            `yaml:"notes,omitempty" json:"notes,omitempty"`
	Stats       map[string]string `yaml:"stats,omitempty" json:"stats,omitempty"`
}

// PhraseRule maps literal surface phrases to one tooltip target
type PhraseRule struct {
	ID      string   `yaml:"id" json:"id"`
	Phrases []string `yaml:"phrases" json:"phrases"`
}

// Book is everything the engine is built from
type Book struct {
	Rules   []RuleNode       `json:"rules"`
	Tables  []ReferenceTable `json:"tables"`
	Phrases []PhraseRule     `json:"phrases"`
}
