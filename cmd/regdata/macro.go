package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/export"
	"github.com/econlab/regdata/internal/macro"
)

// --- Macro Command ---

var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Build the month-end macro panel",
	Long: `Fetch the configured FRED series, resample each to month-end, align
them, add year-over-year inflation and consumption growth, drop incomplete
rows and write the panel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newFRED(cfg)
		if err != nil {
			return err
		}
		panelCfg, err := cfg.PanelConfig()
		if err != nil {
			return err
		}

		frame, err := macro.NewBuilder(src, panelCfg, logger).Build(cmd.Context())
		if err != nil {
			return fmt.Errorf("macro panel: %w", err)
		}
		if err := macro.Describe(os.Stdout, frame, 5); err != nil {
			return err
		}

		paths, err := export.WriteAll(cfg.Macro.OutputDir, cfg.Macro.File, cfg.Output.Formats, macro.PanelTable(frame))
		if err != nil {
			return fmt.Errorf("write macro panel: %w", err)
		}
		rows, cols := frame.Shape()
		logger.Info("macro panel saved", zap.Strings("paths", paths), zap.Int("rows", rows), zap.Int("columns", cols))
		return nil
	},
}

// --- FRED Download Command ---

var fredDownloadCmd = &cobra.Command{
	Use:   "fred-download",
	Short: "Download raw FRED series to per-series CSV files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newFRED(cfg)
		if err != nil {
			return err
		}
		dlCfg, err := cfg.DownloadConfig()
		if err != nil {
			return err
		}

		summary, err := macro.NewDownloader(src, dlCfg, logger).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d series, %d failed.\n", len(summary.Saved), len(summary.Failed))
		for _, f := range summary.Failed {
			fmt.Printf("  %-10s %-10s %v\n", f.ID, f.Class, f.Err)
		}
		return nil
	},
}
