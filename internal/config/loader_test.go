package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Paging.PageLimit != 100 {
		t.Errorf("PageLimit = %d, want default 100", cfg.Paging.PageLimit)
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
storage:
  claudeRoot: /data/claude
  metaDB: /data/origins.db
paging:
  pageLimit: 25
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Storage.ClaudeRoot != "/data/claude" {
		t.Errorf("ClaudeRoot = %q", cfg.Storage.ClaudeRoot)
	}
	if cfg.Storage.MetaDB != "/data/origins.db" {
		t.Errorf("MetaDB = %q", cfg.Storage.MetaDB)
	}
	if cfg.Paging.PageLimit != 25 {
		t.Errorf("PageLimit = %d, want 25", cfg.Paging.PageLimit)
	}
	// Unset fields keep their zero value
	if cfg.Storage.CodexRoot != "" {
		t.Errorf("CodexRoot = %q, want empty", cfg.Storage.CodexRoot)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage: [not a map"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandPath("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path should pass through, got %q", got)
	}
}
