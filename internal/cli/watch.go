package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch <agent>",
	Short: "Stream session change events",
	Long:  `Watch an agent's session store and print change events as they happen.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookupStore(args[0])
		if err != nil {
			return err
		}
		watchable, ok := store.(storage.WatchableStore)
		if !ok {
			return fmt.Errorf("agent %q does not support watching", args[0])
		}

		events, err := watchable.Watch(projectPath)
		if err != nil {
			return err
		}
		log.Info("watching for changes", "agent", args[0], "project", projectPath)

		for ev := range events {
			fmt.Printf("%s %s\n", roleStyle.Render(string(ev.Type)), ev.SessionID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
