package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/universe"
)

// --- Universe Command ---

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Build ticker lists for the firms command",
}

var sp500Cmd = &cobra.Command{
	Use:   "sp500",
	Short: "Scrape the S&P 500 constituents into a ticker CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Firms.TickersCSV
		}
		url, _ := cmd.Flags().GetString("url")

		client := infra.NewClient(0, cfg.Yahoo.UserAgent)
		symbols, err := universe.NewScraper(url, client).SP500(cmd.Context())
		if err != nil {
			return err
		}
		if err := universe.WriteTickersCSV(out, symbols); err != nil {
			return err
		}
		logger.Info("universe saved", zap.String("path", out), zap.Int("symbols", len(symbols)))
		fmt.Printf("Saved %d symbols to %s\n", len(symbols), out)
		return nil
	},
}

func init() {
	sp500Cmd.Flags().String("out", "", "output CSV path (default: firms.tickers_csv)")
	sp500Cmd.Flags().String("url", universe.SP500URL, "constituents page URL")
	universeCmd.AddCommand(sp500Cmd)
}
