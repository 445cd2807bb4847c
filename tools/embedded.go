package tools

import (
	"embed"
	"io/fs"
)

// Embed the sample rulebook into the binary
// This ensures the MCP server works standalone without requiring
// a content directory to be present on the filesystem.
//
// Embedded files:
// - Rule tree (rules.yaml)
// - Phrase registry (phrases.yaml)
// - Reference tables (weapons, armour, traits, core and class abilities)

//go:embed data/content/rules.yaml
//go:embed data/content/phrases.yaml
//go:embed data/content/tables/*
var embeddedFS embed.FS

// embeddedDataProvider implements DataProvider using embed.FS.
// This is the production implementation that uses actual embedded files.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a production DataProvider that uses embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

// ReadFile reads the named file from the embedded filesystem.
func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

// ReadDir reads the named directory from the embedded filesystem.
func (p *embeddedDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return p.fs.ReadDir(name)
}

// Default provider used when no content directory is configured
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
