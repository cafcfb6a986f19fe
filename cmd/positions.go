package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// positionsCmd represents the positions command
var positionsCmd = &cobra.Command{
	Use:   "positions <device>",
	Short: "Print a device's switching positions",
	Long: `Print the full connection graph of a valve: one line per switching
position with the port groups that position joins.

Port numbers follow the stator labels; a selector's common center port is
numbered one past the radial ports.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, mgr, reg, _, err := setup()
		if err != nil {
			fatal(err)
		}
		defer reg.CloseAll()

		dev, err := mgr.Get(args[0])
		if err != nil {
			fatal(err)
		}

		for key, cs := range dev.Controller().Graph().States() {
			fmt.Printf("%3d  %s\n", key, cs)
		}
	},
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}
