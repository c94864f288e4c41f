// Package cli implements the callpopup commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "callpopup",
	Short: "Popup windows for telephony calls on the session bus",
	Long: `Callpopup watches the telephony service on the D-Bus session bus and
shows a small popup window for each call, with answer and hang-up
buttons and a running call duration.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
