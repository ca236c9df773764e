package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteFallback string

var deleteCmd = &cobra.Command{
	Use:   "delete <agent> <session-id> <user-message-id>",
	Short: "Delete a user/assistant message pair",
	Long: `Delete the identified user message together with its immediately
following assistant response. With --fallback, the backend keeps a
stand-in user record carrying the given content where its layout
supports one.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookupStore(args[0])
		if err != nil {
			return err
		}

		result := store.DeleteMessagePair(projectPath, args[1], args[2], deleteFallback)
		if !result.Success {
			return fmt.Errorf("delete failed: %s", result.Error)
		}
		fmt.Println(headerStyle.Render(fmt.Sprintf("Deleted (%d record(s) removed)", result.LinesRemoved)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVar(&deleteFallback, "fallback", "", "Replace the user message with this content instead of removing it")
}
