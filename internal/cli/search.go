package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

var searchMode string

var searchCmd = &cobra.Command{
	Use:   "search <agent> <query>",
	Short: "Search session content",
	Long: `Search an agent's sessions for a case-insensitive substring match.

The --mode flag scopes what is scanned:
  title      session titles only
  user       user messages
  assistant  assistant messages
  all        titles and all messages (default)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookupStore(args[0])
		if err != nil {
			return err
		}

		results, err := store.SearchSessions(projectPath, args[1], storage.SearchMode(searchMode))
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println(headerStyle.Render("No matches"))
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%d matching session(s)", len(results))))
		fmt.Println()
		for _, r := range results {
			id := r.Session.SessionID
			if len(id) > 8 {
				id = id[:8]
			}
			fmt.Printf("%s  %s  %s\n    %s\n",
				idStyle.Render(id),
				r.Session.Title,
				roleStyle.Render("["+r.Field+"]"),
				r.Snippet,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchMode, "mode", string(storage.SearchModeAll), "Search scope: title, user, assistant, or all")
}
