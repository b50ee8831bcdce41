package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"breakout-desk/internal/app"
	"breakout-desk/services"
)

func newStrategyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy TICKER",
		Short: "Show the trade setups for one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := opts.orchestrator()
			if err != nil {
				return err
			}

			if !o.SubmitStrategy(cmd.Context(), args[0]) {
				return errors.New("a ticker is required")
			}
			return printState(cmd.OutOrStdout(), o.State(), opts.asJSON)
		},
	}
}

func newScanCmd(opts *options) *cobra.Command {
	var selectBest bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the ticker universe for breakout candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := opts.orchestrator()
			if err != nil {
				return err
			}

			o.SubmitScan(cmd.Context())

			scan, ok := o.State().(app.ScanResults)
			if !ok || !selectBest || len(scan.Candidates) == 0 {
				return printState(cmd.OutOrStdout(), o.State(), opts.asJSON)
			}

			best := scan.Candidates[0]
			for _, c := range scan.Candidates[1:] {
				if c.BestScore > best.BestScore {
					best = c
				}
			}
			o.SelectCandidate(cmd.Context(), best.Ticker)
			return printState(cmd.OutOrStdout(), o.State(), opts.asJSON)
		},
	}

	cmd.Flags().BoolVar(&selectBest, "select-best", false, "show the setups of the top candidate instead of the list")
	return cmd
}

func newTickersCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tickers",
		Short: "Download the NASDAQ symbol list used as the scan universe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = opts.cfg.Universe.OutputPath
			}

			source := services.NewNasdaqService(opts.cfg.Universe.NasdaqURL)
			tickers, err := source.FetchTickers(cmd.Context())
			if err != nil {
				return err
			}

			if err := services.SaveTickers(output, tickers); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tickers to %s\n", len(tickers), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default from config)")
	return cmd
}
