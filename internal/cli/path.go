package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path <agent> <session-id>",
	Short: "Print a session's on-disk location",
	Long: `Print where a session lives on disk. Backends whose layout cannot
answer without scanning report the path as unavailable.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookupStore(args[0])
		if err != nil {
			return err
		}
		path := store.SessionPath(projectPath, args[1])
		if path == "" {
			fmt.Println(headerStyle.Render("Path unavailable for this backend"))
			return nil
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathCmd)
}
