package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

var starRemove bool

var starCmd = &cobra.Command{
	Use:   "star <agent> <session-id>",
	Short: "Star or unstar a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		origins, err := lookupOriginStore(args[0])
		if err != nil {
			return err
		}
		if err := origins.SetStarred(projectPath, args[1], !starRemove); err != nil {
			return err
		}
		if starRemove {
			fmt.Println(headerStyle.Render("Unstarred"))
		} else {
			fmt.Println(headerStyle.Render("Starred"))
		}
		return nil
	},
}

var originCmd = &cobra.Command{
	Use:   "origin <agent> <session-id> [user|auto]",
	Short: "Show or set a session's origin",
	Long: `Show how a session came to exist, or record it. Origin "user" marks a
session started by a person; "auto" marks one created programmatically.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		origins, err := lookupOriginStore(args[0])
		if err != nil {
			return err
		}

		if len(args) == 2 {
			sessionMeta, ok, err := origins.SessionMeta(projectPath, args[1])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(headerStyle.Render("No metadata recorded"))
				return nil
			}
			starred := ""
			if sessionMeta.Starred {
				starred = " (starred)"
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("Origin: %s%s", sessionMeta.Origin, starred)))
			return nil
		}

		origin := storage.Origin(args[2])
		if origin != storage.OriginUser && origin != storage.OriginAuto {
			return fmt.Errorf("invalid origin %q (want user or auto)", args[2])
		}
		if err := origins.SetSessionOrigin(projectPath, args[1], origin); err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("Origin recorded"))
		return nil
	},
}

// lookupOriginStore resolves an agent whose backend tracks provenance
// metadata.
func lookupOriginStore(agentID string) (storage.OriginStore, error) {
	store, err := lookupStore(agentID)
	if err != nil {
		return nil, err
	}
	origins, ok := store.(storage.OriginStore)
	if !ok {
		return nil, fmt.Errorf("agent %q does not track session metadata", agentID)
	}
	return origins, nil
}

func init() {
	rootCmd.AddCommand(starCmd)
	rootCmd.AddCommand(originCmd)
	starCmd.Flags().BoolVar(&starRemove, "remove", false, "Remove the star instead of setting it")
}
