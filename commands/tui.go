package commands

import (
	"air-library/library"
	"air-library/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Full-screen interface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			return tui.Run(lm.Controller())
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
