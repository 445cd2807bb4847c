package tools

import (
	"io/fs"
	"sync/atomic"
	"testing/fstest"
)

// MockDataProvider implements DataProvider for testing.
// It keeps content files in memory so rulebooks can be built without
// embedded data or a content directory.
type MockDataProvider struct {
	files fstest.MapFS
	reads atomic.Int32
}

// NewMockDataProvider creates a new mock data provider for testing.
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		files: make(fstest.MapFS),
	}
}

// AddFile adds a file to the mock provider. Parent directories are implied.
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = &fstest.MapFile{Data: content}
}

// ReadFile reads a file from the mock storage.
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	m.reads.Add(1)
	return fs.ReadFile(m.files, name)
}

// ReadDir lists a directory of the mock storage, sorted by name.
func (m *MockDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(m.files, name)
}

// Reads returns how many files have been read, to check that a reload
// went back to the source.
func (m *MockDataProvider) Reads() int {
	return int(m.reads.Load())
}

// SetDefaultDataProvider sets the default data provider for the package.
// This is useful for testing to inject a mock provider.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider resets the default provider to use embedded data.
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
