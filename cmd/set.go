package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finchlabs/labflow/valve"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <device>",
	Short: "Switch a valve to a position",
	Long: `Switch a valve either to an explicit position key or to whatever
position satisfies a set of connection requirements.

Requirements are port pairs in a:b form. --connect pairs must end up joined,
--avoid pairs must not. When several positions satisfy the requirements the
lowest key wins; --strict makes that ambiguity an error instead.

Example usage:
  labflow set solvent --key 3
  labflow set solvent --connect 7:3
  labflow set inj --connect 1:2 --connect 3:4 --avoid 1:6
  labflow set inj --connect 1:2 --strict`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		connectSpecs, _ := cmd.Flags().GetStringSlice("connect")
		avoidSpecs, _ := cmd.Flags().GetStringSlice("avoid")
		strict, _ := cmd.Flags().GetBool("strict")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		keyFlag, _ := cmd.Flags().GetInt("key")

		if keyFlag < 0 && len(connectSpecs) == 0 {
			fatal(fmt.Errorf("nothing to do: pass --key or at least one --connect pair"))
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
		ctrl := dev.Controller()

		key := valve.Position(keyFlag)
		if keyFlag < 0 {
			connect, err := parsePairs(connectSpecs)
			if err != nil {
				fatal(err)
			}
			avoid, err := parsePairs(avoidSpecs)
			if err != nil {
				fatal(err)
			}
			key, err = ctrl.Graph().Resolve(connect, avoid, !strict)
			if err != nil {
				fatal(err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ctrl.SwitchTo(ctx, key); err != nil {
			fatal(err)
		}

		cs, err := ctrl.Graph().State(key)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%3d  %s\n", key, cs)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().StringSliceP("connect", "c", nil, "Port pair a:b that must be joined (repeatable)")
	setCmd.Flags().StringSliceP("avoid", "a", nil, "Port pair a:b that must not be joined (repeatable)")
	setCmd.Flags().Bool("strict", false, "Fail when more than one position satisfies the requirements")
	setCmd.Flags().IntP("key", "k", -1, "Switch directly to a position key, skipping resolution")
	setCmd.Flags().DurationP("timeout", "t", 10*time.Second, "Timeout for the hardware write")
}

func parsePairs(specs []string) ([]valve.Pair, error) {
	pairs := make([]valve.Pair, 0, len(specs))
	for _, spec := range specs {
		a, b, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid port pair %q: want a:b", spec)
		}
		an, err := strconv.ParseUint(strings.TrimSpace(a), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid port number %q in pair %q", a, spec)
		}
		bn, err := strconv.ParseUint(strings.TrimSpace(b), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid port number %q in pair %q", b, spec)
		}
		pairs = append(pairs, valve.Pair{A: valve.P(uint8(an)), B: valve.P(uint8(bn))})
	}
	return pairs, nil
}
