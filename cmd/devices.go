package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List configured valve devices",
	Long: `List every valve declared in the configuration file.

Each device is opened on startup; a device that cannot be reached makes the
command fail rather than silently dropping it from the listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, mgr, reg, _, err := setup()
		if err != nil {
			fatal(err)
		}
		defer reg.CloseAll()

		devs := mgr.List()
		if len(devs) == 0 {
			fmt.Println("No devices configured")
			return
		}

		headerStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("240")).
			PaddingBottom(1)

		header := fmt.Sprintf("%-15s %-10s %-25s %-20s %s",
			"Name", "Vendor", "Model", "Port", "Address")
		fmt.Println(headerStyle.Render(header))

		for _, d := range devs {
			info := d.Info()
			fmt.Printf("%-15s %-10s %-25s %-20s %s\n",
				info.Name, info.Vendor, info.Model, info.Port, info.Address)
		}
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
