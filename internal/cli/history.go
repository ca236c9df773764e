package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

var (
	historyOffset int
	historyLimit  int
)

var roleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("135"))

var historyCmd = &cobra.Command{
	Use:   "history <agent> <session-id>",
	Short: "Show a session's messages",
	Long:  `Show a window over a session's chronological message stream.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookupStore(args[0])
		if err != nil {
			return err
		}

		page, err := store.ReadSessionMessages(projectPath, args[1], storage.MessageWindow{
			Offset: historyOffset,
			Limit:  historyLimit,
		})
		if err != nil {
			return err
		}

		if page.Total == 0 {
			fmt.Println(headerStyle.Render("No messages found"))
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("Showing %d of %d message(s)", len(page.Messages), page.Total)))
		fmt.Println()

		for _, m := range page.Messages {
			ts := ""
			if !m.Timestamp.IsZero() {
				ts = dateStyle.Render(m.Timestamp.Format("2006-01-02 15:04:05"))
			}
			fmt.Printf("%s %s\n%s\n\n", roleStyle.Render(m.Role), ts, m.Content)
		}

		if page.HasMore {
			next := historyOffset + len(page.Messages)
			fmt.Println(idStyle.Render(fmt.Sprintf("More messages available; continue with --offset %d", next)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "Skip this many messages")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most this many messages (0 for all)")
}
