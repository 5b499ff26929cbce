package commands

import (
	"strings"

	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the library lives and what it has saved",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			st := lm.Storage()
			if st.Headless() {
				output.Line("Database   none (headless, nothing is saved)")
			} else {
				output.Line("Database   %s", cfg.DBPath)
			}
			output.Line("Layout     %s", library.StorageVersion)

			if keys := st.Keys(); len(keys) > 0 {
				output.Line("Saved      %s", strings.Join(keys, ", "))
			} else {
				output.Line("Saved      nothing yet, using the shipped catalog")
			}

			if u, ok := lm.Controller().CurrentUser(); ok {
				output.Line("Session    %s (%s)", u.Username, u.Role)
			} else {
				output.Line("Session    logged out")
			}
			s := lm.Store()
			output.Line("Catalog    %d books, %d accounts, %d unread", len(s.Books()), len(s.Users()), s.UnreadCount())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
