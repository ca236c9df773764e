// Package bootstrap constructs the storage adapters and registers them
// with a registry, giving hosts a single initialization entry point.
package bootstrap

import (
	"github.com/ryanhaqueIT/agentdeck/internal/metastore"
	"github.com/ryanhaqueIT/agentdeck/internal/storage"
	"github.com/ryanhaqueIT/agentdeck/internal/storage/claudecode"
	"github.com/ryanhaqueIT/agentdeck/internal/storage/codex"
	"github.com/ryanhaqueIT/agentdeck/internal/storage/opencode"
)

// Options configures initialization. Every field is optional; the zero
// value registers all adapters with their default roots into the
// package-level registry.
type Options struct {
	// Registry receives the adapters. Defaults to the package-level
	// default registry.
	Registry *storage.Registry

	// Meta is the host's shared provenance store. When set it is
	// injected into adapters that track origin metadata, so host and
	// adapter read the same database. When nil those adapters lazily
	// open a private store on first use.
	Meta *metastore.Store

	// Root overrides per adapter. Empty values use each adapter's
	// default location under the user's home directory.
	ClaudeRoot   string
	CodexRoot    string
	OpenCodeRoot string
}

// Init builds the three adapters and registers them.
func Init(opts Options) {
	reg := opts.Registry
	if reg == nil {
		reg = storage.DefaultRegistry()
	}

	reg.Register(claudecode.New(claudecode.Options{
		Root: opts.ClaudeRoot,
		Meta: opts.Meta,
	}))
	reg.Register(codex.New(codex.Options{
		Root: opts.CodexRoot,
	}))
	reg.Register(opencode.New(opencode.Options{
		Root: opts.OpenCodeRoot,
	}))
}
