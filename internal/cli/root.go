// Package cli implements the agentdeck command line interface over the
// storage layer.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ryanhaqueIT/agentdeck/internal/config"
	"github.com/ryanhaqueIT/agentdeck/internal/metastore"
	"github.com/ryanhaqueIT/agentdeck/internal/storage"
	"github.com/ryanhaqueIT/agentdeck/internal/storage/bootstrap"
)

var (
	verbose     bool
	projectPath string
	configPath  string

	cfg  *config.Config
	meta *metastore.Store
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentdeck",
	Short: "Browse and manage coding agent session history",
	Long: `agentdeck reads the session stores of local coding agents and exposes
them through one interface.

Supported agents:
  claude     JSONL session logs under per-project directories
  opencode   directory-per-message JSON store
  codex      date-partitioned rollout files

Quick Start:
  agentdeck list claude                  # List sessions for this project
  agentdeck history claude <session-id>  # Show a session's messages
  agentdeck search claude "refactor"     # Search session content`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		var err error
		cfg, err = config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if projectPath == "" {
			projectPath, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve project path: %w", err)
			}
		}

		if cfg.Storage.MetaDB != "" {
			meta, err = metastore.Open(cfg.Storage.MetaDB)
			if err != nil {
				return fmt.Errorf("failed to open metadata store: %w", err)
			}
			log.Debug("opened metadata store", "path", cfg.Storage.MetaDB)
		}

		bootstrap.Init(bootstrap.Options{
			Meta:         meta,
			ClaudeRoot:   cfg.Storage.ClaudeRoot,
			CodexRoot:    cfg.Storage.CodexRoot,
			OpenCodeRoot: cfg.Storage.OpenCodeRoot,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if meta != nil {
			meta.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", "", "Project root (defaults to the working directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (defaults to ~/.config/agentdeck/config.yaml)")
}

// lookupStore resolves an agent argument against the registry.
func lookupStore(agentID string) (storage.Store, error) {
	store := storage.Get(agentID)
	if store == nil {
		ids := make([]string, 0)
		for _, s := range storage.All() {
			ids = append(ids, s.AgentID())
		}
		sort.Strings(ids)
		return nil, fmt.Errorf("unknown agent %q (have: %s)", agentID, strings.Join(ids, ", "))
	}
	return store, nil
}
