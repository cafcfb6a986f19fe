package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finchlabs/labflow"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the labflow version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("labflow " + labflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
