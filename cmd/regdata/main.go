// regdata builds flat-file datasets for regression analysis from FRED
// and Yahoo Finance.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/config"
	"github.com/econlab/regdata/internal/logging"
	"github.com/econlab/regdata/internal/provider"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "regdata",
	Short: "Build regression datasets from FRED and Yahoo Finance",
	Long: `regdata downloads macroeconomic series from FRED and company
fundamentals and prices from Yahoo Finance, and writes aligned CSV
datasets (optionally XLSX and Parquet) for regression analysis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		base, err := logging.New(level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		logger, _ = logging.WithRun(base, cmd.Name())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(macroCmd)
	rootCmd.AddCommand(fredDownloadCmd)
	rootCmd.AddCommand(firmCmd)
	rootCmd.AddCommand(firmsCmd)
	rootCmd.AddCommand(universeCmd)
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("no-ping", false, "skip the provider connectivity check")
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("regdata %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, API key and provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  regdata status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    FRED:          %s (every %dms)\n", cfg.FRED.BaseURL, cfg.FRED.RequestIntervalMs)
		fmt.Printf("    Yahoo:         %s (auto_adjust: %t)\n", cfg.Yahoo.BaseURL, cfg.Yahoo.AutoAdjust)
		fmt.Printf("    Macro panel:   %d series, %s .. %s -> %s\n",
			len(cfg.Macro.Series), cfg.Macro.WindowStart, cfg.Macro.WindowEnd, cfg.Macro.OutputDir)
		fmt.Printf("    Download:      %d series -> %s\n", len(cfg.Download.Series), cfg.Download.OutputDir)
		fmt.Printf("    Firms:         period %s, tickers %s -> %s\n", cfg.Firms.Period, cfg.Firms.TickersCSV, cfg.Firms.OutputDir)
		fmt.Printf("    Formats:       %v\n", cfg.Output.Formats)
		fmt.Printf("    Logging:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		if noPing, _ := cmd.Flags().GetBool("no-ping"); !noPing {
			printProviderStatus(cmd.Context())
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// printProviderStatus pings FRED and Yahoo and lists the models each serves.
func printProviderStatus(ctx context.Context) {
	fmt.Println("  Providers:")
	providers := []provider.Provider{newYahoo(cfg)}
	if fp, err := newFRED(cfg); err != nil {
		fmt.Printf("    %-12s not configured: %v\n", "fred", err)
	} else {
		providers = append([]provider.Provider{fp}, providers...)
	}

	for _, st := range provider.Check(ctx, 10*time.Second, providers...) {
		if st.OK() {
			fmt.Printf("    %-12s ok (%s)\n", st.Name, st.Latency.Round(time.Millisecond))
		} else {
			fmt.Printf("    %-12s unreachable: %v\n", st.Name, st.Err)
			logger.Warn("provider ping failed", zap.String("provider", st.Name), zap.Error(st.Err))
		}
		cats := make([]string, 0, len(st.Categories))
		for c := range st.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Printf("      %-22s %v\n", c+":", st.Categories[c])
		}
	}
}
