package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/finchlabs/labflow/internal/tui/models"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console <device>",
	Short: "Interactive console for one valve",
	Long: `Open an interactive console for a valve: a table of every switching
position with the confirmed one marked.

Navigate with the arrow keys, press enter to switch, r to re-read the
position from the hardware, q to quit.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Hardware chatter on stderr would draw over the alternate screen.
		if logLevel == "" {
			logLevel = "error"
		}

		_, mgr, reg, _, err := setup()
		if err != nil {
			fatal(err)
		}
		defer reg.CloseAll()

		dev, err := mgr.Get(args[0])
		if err != nil {
			fatal(err)
		}

		p := tea.NewProgram(models.NewConsole(dev), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
