package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content file names, relative to the content root
const (
	rulesBase   = "rules"
	phrasesBase = "phrases"
	tablesDir   = "tables"
)

var contentExtensions = []string{".yaml", ".yml", ".json"}

// Source is the read access the loader needs. embed.FS, os.DirFS wrappers and
// in-memory providers used in tests all satisfy it.
type Source interface {
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

// FSSource adapts an fs.FS to Source
type FSSource struct {
	FS fs.FS
}

// ReadFile reads a file from the wrapped filesystem
func (s FSSource) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(s.FS, name)
}

// ReadDir lists a directory of the wrapped filesystem
func (s FSSource) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(s.FS, name)
}

// Loader reads and validates rulebook content from a Source
type Loader struct {
	source  Source
	root    string
	schemas *Schemas
}

// NewLoader creates a loader rooted at root inside source
func NewLoader(source Source, root string) (*Loader, error) {
	schemas, err := NewSchemas()
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = "."
	}
	return &Loader{source: source, root: root, schemas: schemas}, nil
}

// Load reads rules, reference tables and phrases. Missing files yield empty
// sections; malformed files are errors wrapping ErrInvalidContent.
func (l *Loader) Load() (Book, error) {
	var book Book

	rules, err := l.loadRules()
	if err != nil {
		return Book{}, err
	}
	book.Rules = rules

	tables, err := l.loadTables()
	if err != nil {
		return Book{}, err
	}
	book.Tables = tables

	phrases, err := l.loadPhrases()
	if err != nil {
		return Book{}, err
	}
	book.Phrases = phrases

	return book, nil
}

func (l *Loader) loadRules() ([]RuleNode, error) {
	name, data, err := l.readFirst(rulesBase)
	if err != nil || data == nil {
		return nil, err
	}
	if err := l.schemas.ValidateRules(name, data); err != nil {
		return nil, err
	}

	var rules []RuleNode
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
	}
	return rules, nil
}

func (l *Loader) loadPhrases() ([]PhraseRule, error) {
	name, data, err := l.readFirst(phrasesBase)
	if err != nil || data == nil {
		return nil, err
	}
	if err := l.schemas.ValidatePhrases(name, data); err != nil {
		return nil, err
	}

	var phrases []PhraseRule
	if err := yaml.Unmarshal(data, &phrases); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
	}
	return phrases, nil
}

func (l *Loader) loadTables() ([]ReferenceTable, error) {
	dir := path.Join(l.root, tablesDir)
	entries, err := l.source.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tables directory %s: %w", dir, err)
	}

	// Sort for deterministic load order
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var tables []ReferenceTable
	for _, entry := range entries {
		if entry.IsDir() || !hasContentExtension(entry.Name()) {
			continue
		}

		name := path.Join(dir, entry.Name())
		data, err := l.source.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			log.Printf("Warning: empty table file %s skipped", name)
			continue
		}
		if err := l.schemas.ValidateTable(name, data); err != nil {
			return nil, err
		}

		var table ReferenceTable
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContent, name, err)
		}
		tables = append(tables, table)
	}

	return tables, nil
}

// readFirst returns the first existing file among base + known extensions.
// A missing or blank file returns nil data and no error.
func (l *Loader) readFirst(base string) (string, []byte, error) {
	for _, ext := range contentExtensions {
		name := path.Join(l.root, base+ext)
		data, err := l.source.ReadFile(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return name, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return name, nil, nil
		}
		return name, data, nil
	}
	return "", nil, nil
}

func hasContentExtension(name string) bool {
	for _, ext := range contentExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
