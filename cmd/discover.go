package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/finchlabs/labflow/internal/discovery"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find labflow servers on the local network",
	Long: `Browse the local network for running labflow servers via mDNS and
print where they can be reached.`,
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		defer cancel()

		found, err := discovery.Browse(ctx, timeout)
		if err != nil && len(found) == 0 {
			fatal(err)
		}
		if len(found) == 0 {
			fmt.Println("No labflow servers found")
			return
		}

		headerStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("240")).
			PaddingBottom(1)

		header := fmt.Sprintf("%-20s %-22s %s", "Name", "Address", "Info")
		fmt.Println(headerStyle.Render(header))

		for _, inst := range found {
			addr := fmt.Sprintf("%s:%d", inst.Addr, inst.Port)
			fmt.Printf("%-20s %-22s %s\n", inst.Name, addr, strings.Join(inst.Info, " "))
		}
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().DurationP("timeout", "t", 3*time.Second, "How long to browse for answers")
}
