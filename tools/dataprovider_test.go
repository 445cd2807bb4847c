package tools

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rulekeeper/rulebook-mcp/internal/config"
)

func TestMockDataProvider_ReadFile(t *testing.T) {
	mock := NewMockDataProvider()

	// Add a test file
	mock.AddFile("data/content/rules.yaml", []byte("[]"))

	// Read existing file
	content, err := mock.ReadFile("data/content/rules.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != "[]" {
		t.Errorf("Expected '[]', got: %s", string(content))
	}

	// Try to read non-existent file
	_, err = mock.ReadFile("data/content/missing.yaml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}

	if mock.Reads() != 2 {
		t.Errorf("Expected 2 reads, got: %d", mock.Reads())
	}
}

func TestMockDataProvider_ReadDir(t *testing.T) {
	mock := NewMockDataProvider()

	mock.AddFile("data/content/tables/weapons.yaml", []byte("kind: weapons"))
	mock.AddFile("data/content/tables/armour.yaml", []byte("kind: armour"))
	mock.AddFile("data/content/rules.yaml", []byte("[]"))

	entries, err := mock.ReadDir("data/content/tables")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}
	if entries[0].Name() != "armour.yaml" {
		t.Errorf("Expected sorted entries, got %s first", entries[0].Name())
	}

	// Directories are implied by file paths
	entries, err = mock.ReadDir("data/content")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	var sawTables bool
	for _, e := range entries {
		if e.Name() == "tables" && e.IsDir() {
			sawTables = true
		}
	}
	if !sawTables {
		t.Error("Expected tables directory entry")
	}

	// Try to read non-existent directory
	_, err = mock.ReadDir("data/missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}
}

func TestMockDataProvider_SetAndReset(t *testing.T) {
	mock := NewMockDataProvider()

	originalProvider := defaultDataProvider
	defer func() {
		defaultDataProvider = originalProvider
	}()

	SetDefaultDataProvider(mock)
	if defaultDataProvider != DataProvider(mock) {
		t.Fatal("Expected mock to be the default provider")
	}

	ResetDefaultDataProvider()
	if defaultDataProvider == DataProvider(mock) {
		t.Error("Expected defaultDataProvider to be reset")
	}
}

func TestRulebookFromMockProvider(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/content/rules.yaml", []byte(`
- id: stunned
  title: Stunned
  summary: Loses the next action.
`))
	mock.AddFile("data/content/phrases.yaml", []byte(`
- id: stunned
  phrases: [Stunned]
`))
	mock.AddFile("data/content/tables/weapons.yaml", []byte(`
kind: weapons
title: Weapons
rows:
  - name: Mace
`))

	originalProvider := defaultDataProvider
	defer func() { defaultDataProvider = originalProvider }()
	SetDefaultDataProvider(mock)

	useHolder(t, &engineHolder{})
	t.Cleanup(func() { rulebookMgr.close() })

	if err := InitializeRulebook(config.Config{FuzzyThreshold: 0.4, MaxResults: 20}); err != nil {
		t.Fatalf("InitializeRulebook() error = %v", err)
	}
	readsAfterInit := mock.Reads()

	_, out, err := ReloadContent(context.Background(), nil, ReloadContentInput{})
	if err != nil {
		t.Fatalf("ReloadContent() error = %v", err)
	}
	// stunned + weapons header + mace row
	if out.Stats.Records != 3 || out.Stats.Phrases != 1 {
		t.Errorf("unexpected stats %+v", out.Stats)
	}
	if mock.Reads() <= readsAfterInit {
		t.Error("reload should read content again")
	}
}

func TestDirDataProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "tables"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tables", "armour.yaml"), []byte("kind: armour"), 0644); err != nil {
		t.Fatal(err)
	}

	provider := NewDirDataProvider(dir)

	data, err := provider.ReadFile("tables/armour.yaml")
	if err != nil || string(data) != "kind: armour" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}

	entries, err := provider.ReadDir("tables")
	if err != nil || len(entries) != 1 {
		t.Errorf("ReadDir() = %v, %v", entries, err)
	}

	if _, err := provider.ReadFile("rules.yaml"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}
}

func TestEmbeddedDataProvider(t *testing.T) {
	provider := NewEmbeddedDataProvider()

	for _, name := range []string{"data/content/rules.yaml", "data/content/phrases.yaml"} {
		if _, err := provider.ReadFile(name); err != nil {
			t.Errorf("embedded %s missing: %v", name, err)
		}
	}

	entries, err := provider.ReadDir("data/content/tables")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("Expected 5 embedded tables, got %d", len(entries))
	}
}
