// Package main is a one-shot command line client: request the setups for a
// ticker, scan the ticker universe, or refresh the universe file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"breakout-desk/config"
	"breakout-desk/internal/app"
	"breakout-desk/models"
	"breakout-desk/observability"
)

var version = "dev"

type options struct {
	configPath   string
	dollars      string
	strategyType string
	asJSON       bool
	verbose      bool

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "breakout-cli",
		Short:         "Query the 8-EMA breakout strategy service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := observability.ParseLevel("warn")
			if opts.verbose {
				level = observability.ParseLevel(cfg.Logging.Level)
			}
			observability.InitLoggerTo(cmd.ErrOrStderr(), cfg.IsProduction(), level)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("BREAKOUT_CONFIG"), "YAML config file")
	flags.StringVar(&opts.dollars, "dollars", "", "investment amount (default from config, then "+models.DefaultDollars+")")
	flags.StringVarP(&opts.strategyType, "type", "t", "", "strategy type: simple, retest, swing or all")
	flags.BoolVar(&opts.asJSON, "json", false, "print the view state as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	root.AddCommand(
		newStrategyCmd(opts),
		newScanCmd(opts),
		newTickersCmd(opts),
		newVersionCmd(),
	)
	return root
}

// orchestrator builds an orchestrator with the flag overrides applied to
// the configured form defaults
func (o *options) orchestrator() (*app.Orchestrator, error) {
	orchestrator := app.NewFromConfig(o.cfg).NewOrchestrator()

	if o.dollars != "" {
		orchestrator.SetDollars(o.dollars)
	}
	if o.strategyType != "" {
		t, err := models.ParseStrategyType(o.strategyType)
		if err != nil {
			return nil, err
		}
		orchestrator.SetStrategyType(t)
	}
	return orchestrator, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "breakout-cli %s\n", version)
		},
	}
}
