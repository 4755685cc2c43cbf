package gui

import (
	"github.com/spf13/cobra"
)

// NewGUICommand creates the gui command. socketPath is read when the
// command runs so that flag parsing has already happened.
func NewGUICommand(socketPath func() string, groupID string) *cobra.Command {
	return &cobra.Command{
		Use:     "gui",
		Short:   "Show controller battery in the system tray",
		GroupID: groupID,
		Long: `Show controller battery in the system tray.

The tray talks to a running padbatt daemon and shows "Offline" while it is unreachable.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(socketPath())
		},
	}
}
