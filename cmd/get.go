package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <device>",
	Short: "Read a valve's current position",
	Long: `Read the current position from the hardware and print the port
groups it joins. The read is confirmed by the instrument itself, never
answered from a cache.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		_, mgr, reg, _, err := setup()
		if err != nil {
			fatal(err)
		}
		defer reg.CloseAll()

		dev, err := mgr.Get(args[0])
		if err != nil {
			fatal(err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ctrl := dev.Controller()
		cs, err := ctrl.Position(ctx)
		if err != nil {
			fatal(err)
		}
		key, _ := ctrl.Current()
		fmt.Printf("%3d  %s\n", key, cs)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for the hardware read")
}
