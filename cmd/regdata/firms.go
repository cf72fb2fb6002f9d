package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/export"
	"github.com/econlab/regdata/internal/firm"
	"github.com/econlab/regdata/internal/universe"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// --- Firm Command ---

var firmCmd = &cobra.Command{
	Use:   "firm [ticker]",
	Short: "Compute the regression variables for one company",
	Long: `Compute leverage, ROA, tangibility, size, market-to-book, tax rate,
volatility and turnover for one ticker and fiscal quarter. Every field must
be present unless --lenient is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := "AAPL"
		if len(args) == 1 {
			ticker = utils.NormalizeTicker(args[0])
		}
		batchCfg, err := batchConfig(cmd)
		if err != nil {
			return err
		}
		mode := firm.Strict
		if lenient, _ := cmd.Flags().GetBool("lenient"); lenient {
			mode = firm.Lenient
		}

		v, err := firm.NewExtractor(newYahoo(cfg), mode, logger).Compute(cmd.Context(), firm.Request{
			Ticker:      ticker,
			Period:      batchCfg.Period,
			WindowStart: batchCfg.WindowStart,
			WindowEnd:   batchCfg.WindowEnd,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", ticker, err)
		}

		t := firm.FirmTable(ticker, []*models.FirmVariables{v})
		path := filepath.Join(batchCfg.OutputDir, utils.SafeFileName(ticker)+"_variables.csv")
		if err := export.CSV(path, t); err != nil {
			return err
		}
		printRow(t)
		logger.Info("saved", zap.String("ticker", ticker), zap.String("path", path))
		return nil
	},
}

func init() {
	firmCmd.Flags().String("period", "", "fiscal quarter end, YYYY-MM-DD (default: firms.period)")
	firmCmd.Flags().Bool("lenient", false, "turn missing inputs into empty values instead of failing")
}

// --- Firms Command ---

var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "Compute the regression variables for a list of tickers",
	Long: `Process every ticker in the first column of a CSV, one at a time.
Tickers whose statements lack the period or required fields are skipped.
Each success is saved to <SYM>_variables.csv and all rows to the combined file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("tickers")
		if path == "" {
			path = cfg.Firms.TickersCSV
		}
		tickers, err := universe.LoadTickersCSV(path)
		if err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Loaded %d tickers from CSV.", len(tickers)), zap.String("path", path))

		batchCfg, err := batchConfig(cmd)
		if err != nil {
			return err
		}
		b := firm.NewBatch(newYahoo(cfg), batchCfg, logger)
		if quiet, _ := cmd.Flags().GetBool("no-progress"); !quiet {
			bar := progressbar.Default(int64(len(tickers)), "firms")
			b.OnProgress(func(i, n int, ticker string) { bar.Add(1) })
			defer bar.Finish()
		}

		res, err := b.Run(cmd.Context(), tickers)
		if err != nil {
			return err
		}
		fmt.Printf("\nProcessed %d tickers: %d saved, %d skipped.\n", res.Processed, len(res.Saved), len(res.Skipped))
		for _, p := range res.Combined {
			fmt.Printf("Combined dataset saved to: %s\n", p)
		}
		return nil
	},
}

func init() {
	firmsCmd.Flags().String("tickers", "", "ticker CSV path (default: firms.tickers_csv)")
	firmsCmd.Flags().String("period", "", "fiscal quarter end, YYYY-MM-DD (default: firms.period)")
	firmsCmd.Flags().Bool("no-progress", false, "disable the progress bar")
}

// batchConfig applies the --period flag over the firms config section.
func batchConfig(cmd *cobra.Command) (firm.BatchConfig, error) {
	bc, err := cfg.BatchConfig()
	if err != nil {
		return bc, err
	}
	if p, _ := cmd.Flags().GetString("period"); p != "" {
		period, err := utils.ParseDate(p)
		if err != nil {
			return bc, err
		}
		bc.Period = period
	}
	return bc, nil
}

func printRow(t export.Table) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range t.Rows {
		for i, h := range t.Header {
			fmt.Fprintf(tw, "%s\t%s\n", h, export.FormatCell(row[i]))
		}
	}
	tw.Flush()
}
