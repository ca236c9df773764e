package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

var (
	listLimit  int
	listCursor string
	listAll    bool
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var listCmd = &cobra.Command{
	Use:   "list <agent>",
	Short: "List sessions for the project",
	Long:  `List an agent's sessions recorded for the project, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookupStore(args[0])
		if err != nil {
			return err
		}

		limit := listLimit
		if limit <= 0 {
			limit = cfg.Paging.PageLimit
		}

		var sessions []storage.SessionInfo
		cursor := listCursor
		total := 0
		for {
			page, err := store.ListSessionsPaginated(projectPath, storage.PageOptions{
				Cursor: cursor,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			sessions = append(sessions, page.Sessions...)
			total = page.TotalCount
			cursor = page.NextCursor
			if !listAll || !page.HasMore {
				displaySessions(sessions, total, cursor)
				return nil
			}
		}
	},
}

func displaySessions(sessions []storage.SessionInfo, total int, nextCursor string) {
	if len(sessions) == 0 {
		fmt.Println(headerStyle.Render("No sessions found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Showing %d of %d session(s)", len(sessions), total)))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")

	for _, s := range sessions {
		id := s.SessionID
		if len(id) > 8 {
			id = id[:8]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(id),
			s.Title,
			countStyle.Render(strconv.Itoa(s.MessageCount)),
			dateStyle.Render(relativeTime(s.UpdatedAt)),
		)
	}
	_ = w.Flush()

	if nextCursor != "" {
		fmt.Println()
		fmt.Println(idStyle.Render("More sessions available; continue with --cursor " + nextCursor))
	}
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size (defaults to the configured page limit)")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "Continuation cursor from a previous page")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Follow cursors until every session is listed")
}
