package tools

import (
	"io/fs"
	"os"
)

// DataProvider defines the interface for reading rulebook content files.
// This abstraction allows for dependency injection and makes the code testable
// without requiring actual embedded files to be present. Every DataProvider
// satisfies content.Source, so it can be handed straight to a content.Loader.
//
// Implementations:
//   - embeddedDataProvider: Uses embed.FS for production (sample rulebook)
//   - dirDataProvider: Reads a content directory on disk
//   - MockDataProvider: Uses in-memory map for testing
type DataProvider interface {
	// ReadFile reads the named file and returns its contents.
	// The name is relative to the data root (e.g., "data/content/rules.yaml").
	ReadFile(name string) ([]byte, error)

	// ReadDir reads the named directory and returns its entries.
	// The name is relative to the data root (e.g., "data/content/tables").
	ReadDir(name string) ([]fs.DirEntry, error)
}

// dirDataProvider implements DataProvider over a directory on disk
type dirDataProvider struct {
	fsys fs.FS
}

// NewDirDataProvider creates a DataProvider rooted at dir. Names passed to it
// are slash-separated and relative to dir.
func NewDirDataProvider(dir string) DataProvider {
	return &dirDataProvider{fsys: os.DirFS(dir)}
}

// ReadFile reads the named file below the content directory.
func (p *dirDataProvider) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(p.fsys, name)
}

// ReadDir reads the named directory below the content directory.
func (p *dirDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(p.fsys, name)
}
