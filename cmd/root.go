package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/internal/config"
	"github.com/finchlabs/labflow/internal/logging"
	"github.com/finchlabs/labflow/transport"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labflow",
	Short: "Control multiposition valves from the bench",
	Long: `labflow drives multi-port rotary valves over serial lines.

Valves are declared in a configuration file (labflow.yaml in the working
directory, ~/.config/labflow or /etc/labflow) and addressed by name. Every
command talks to them through the same switching-position engine, whatever
the vendor protocol underneath.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: labflow.yaml in ., ~/.config/labflow or /etc/labflow)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error (default from config)")
}

// setup loads the configuration and opens every configured device. The
// returned registry owns the serial lines; callers close it when done.
func setup() (*config.Config, *labflow.Manager, *transport.Registry, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	name := logLevel
	if name == "" {
		name = cfg.LogLevel
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log := logging.New(level)

	reg := transport.NewRegistry()
	mgr, err := cfg.BuildManager(reg, log)
	if err != nil {
		reg.CloseAll()
		return nil, nil, nil, nil, err
	}
	return cfg, mgr, reg, log, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
