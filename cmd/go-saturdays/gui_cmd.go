package main

import (
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/ui"
)

// newGUICmd initializes the Fyne application and blocks in the UI loop.
func newGUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdGUI,
		Short: config.CmdDescGUI,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.NewWithID(config.AppID)

			// Record the version for potential migration logic in future updates.
			a.Preferences().SetString(config.PrefLastRun, config.Version)

			gui := ui.NewSaturdaysApp(a, cmd.Context(), c.settings)
			gui.Clock = c.clock
			gui.Run()

			c.logStop()
			return nil
		},
	}
}
