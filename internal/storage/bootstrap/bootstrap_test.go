package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/ryanhaqueIT/agentdeck/internal/metastore"
	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

func TestInitRegistersAllAgents(t *testing.T) {
	reg := storage.NewRegistry()
	Init(Options{
		Registry:     reg,
		ClaudeRoot:   t.TempDir(),
		CodexRoot:    t.TempDir(),
		OpenCodeRoot: t.TempDir(),
	})

	for _, id := range []string{"claude", "codex", "opencode"} {
		if !reg.Has(id) {
			t.Errorf("agent %q not registered", id)
		}
	}
	if len(reg.All()) != 3 {
		t.Errorf("registered %d stores, want 3", len(reg.All()))
	}
}

func TestInitZeroOptions(t *testing.T) {
	storage.Clear()
	defer storage.Clear()

	// Zero value must not panic and must fall back to the default
	// registry and default roots.
	Init(Options{})

	if !storage.Has("claude") || !storage.Has("codex") || !storage.Has("opencode") {
		t.Error("zero-value Init should register all agents in the default registry")
	}
}

func TestInitReplacesPreviousRegistration(t *testing.T) {
	reg := storage.NewRegistry()
	Init(Options{Registry: reg, ClaudeRoot: t.TempDir()})
	first := reg.Get("claude")

	Init(Options{Registry: reg, ClaudeRoot: t.TempDir()})
	if reg.Get("claude") == first {
		t.Error("reinitialization should replace the registered store")
	}
	if len(reg.All()) != 3 {
		t.Errorf("registered %d stores, want 3", len(reg.All()))
	}
}

func TestInitInjectsSharedMetaStore(t *testing.T) {
	shared, err := metastore.Open(filepath.Join(t.TempDir(), "origins.db"))
	if err != nil {
		t.Fatalf("metastore.Open error: %v", err)
	}
	defer shared.Close()

	reg := storage.NewRegistry()
	Init(Options{
		Registry:   reg,
		Meta:       shared,
		ClaudeRoot: t.TempDir(),
	})

	origins, ok := reg.Get("claude").(storage.OriginStore)
	if !ok {
		t.Fatal("claude store should expose origin metadata")
	}
	if err := origins.SetSessionOrigin("/proj", "sess-1", storage.OriginAuto); err != nil {
		t.Fatalf("SetSessionOrigin error: %v", err)
	}

	// Written through the adapter, readable through the host's handle
	meta, found, err := shared.SessionMeta("/proj", "sess-1")
	if err != nil || !found {
		t.Fatalf("SessionMeta = %v, %v", found, err)
	}
	if meta.Origin != storage.OriginAuto {
		t.Errorf("Origin = %q, want auto", meta.Origin)
	}
}
