// Package config handles configuration loading for regdata.
// It supports YAML config files with .env and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/econlab/regdata/internal/firm"
	"github.com/econlab/regdata/internal/macro"
	"github.com/econlab/regdata/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. REGDATA_FRED_API_KEY.
const EnvPrefix = "REGDATA"

// Config represents the complete application configuration.
type Config struct {
	FRED     FREDConfig     `mapstructure:"fred"     yaml:"fred"`
	Yahoo    YahooConfig    `mapstructure:"yahoo"    yaml:"yahoo"`
	Macro    MacroConfig    `mapstructure:"macro"    yaml:"macro"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Firms    FirmsConfig    `mapstructure:"firms"    yaml:"firms"`
	Output   OutputConfig   `mapstructure:"output"   yaml:"output"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FREDConfig holds the FRED API settings.
type FREDConfig struct {
	APIKey            string `mapstructure:"api_key"             yaml:"api_key"`
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"            validate:"required,url"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"         validate:"gte=0"`
	RequestIntervalMs int    `mapstructure:"request_interval_ms" yaml:"request_interval_ms" validate:"gte=0"`
}

// YahooConfig holds the Yahoo Finance settings.
type YahooConfig struct {
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"            validate:"required,url"`
	CookieURL         string `mapstructure:"cookie_url"          yaml:"cookie_url"          validate:"required,url"`
	AutoAdjust        bool   `mapstructure:"auto_adjust"         yaml:"auto_adjust"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"         validate:"gte=0"`
	RequestIntervalMs int    `mapstructure:"request_interval_ms" yaml:"request_interval_ms" validate:"gte=0"`
	UserAgent         string `mapstructure:"user_agent"          yaml:"user_agent"`
}

// MacroConfig describes the month-end panel.
type MacroConfig struct {
	Series      []macro.SeriesSpec `mapstructure:"series"       yaml:"series"       validate:"dive"`
	YoY         []macro.YoYSpec    `mapstructure:"yoy"          yaml:"yoy"          validate:"dive"`
	Columns     []string           `mapstructure:"columns"      yaml:"columns"`
	WindowStart string             `mapstructure:"window_start" yaml:"window_start" validate:"required,date"`
	WindowEnd   string             `mapstructure:"window_end"   yaml:"window_end"   validate:"required,date"`
	YoYLag      int                `mapstructure:"yoy_lag"      yaml:"yoy_lag"      validate:"gte=1"`
	OutputDir   string             `mapstructure:"output_dir"   yaml:"output_dir"   validate:"required"`
	File        string             `mapstructure:"file"         yaml:"file"         validate:"required"`
}

// DownloadConfig describes the raw series download.
type DownloadConfig struct {
	Series           []macro.DownloadSpec `mapstructure:"series"            yaml:"series"            validate:"dive"`
	OutputDir        string               `mapstructure:"output_dir"        yaml:"output_dir"        validate:"required"`
	ObservationStart string               `mapstructure:"observation_start" yaml:"observation_start" validate:"omitempty,date"`
	ObservationEnd   string               `mapstructure:"observation_end"   yaml:"observation_end"   validate:"omitempty,date"`
}

// FirmsConfig describes the firm variable extraction.
type FirmsConfig struct {
	TickersCSV       string `mapstructure:"tickers_csv"        yaml:"tickers_csv"`
	OutputDir        string `mapstructure:"output_dir"         yaml:"output_dir"         validate:"required"`
	Period           string `mapstructure:"period"             yaml:"period"             validate:"required,date"`
	WindowStart      string `mapstructure:"window_start"       yaml:"window_start"       validate:"omitempty,date"`
	WindowEnd        string `mapstructure:"window_end"         yaml:"window_end"         validate:"omitempty,date"`
	CombinedFile     string `mapstructure:"combined_file"      yaml:"combined_file"      validate:"required"`
	TickerIntervalMs int    `mapstructure:"ticker_interval_ms" yaml:"ticker_interval_ms" validate:"gte=0"`
}

// OutputConfig lists the file formats written next to the CSVs.
type OutputConfig struct {
	Formats []string `mapstructure:"formats" yaml:"formats" validate:"dive,oneof=csv xlsx parquet"`
}

// AnalysisConfig holds fetch concurrency settings.
type AnalysisConfig struct {
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches" validate:"gte=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.regdata/config.yaml (home directory)
//  3. /etc/regdata/config.yaml (system)
//
// A .env file in the working directory is loaded first. Environment
// variables override config file values.
// Format: REGDATA_<SECTION>_<KEY>, e.g., REGDATA_FRED_API_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".regdata"))
	v.AddConfigPath("/etc/regdata")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyListDefaults(&cfg)
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// FRED defaults
	v.SetDefault("fred.api_key", "")
	v.SetDefault("fred.base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("fred.timeout_sec", 60)
	v.SetDefault("fred.request_interval_ms", 500)

	// Yahoo defaults
	v.SetDefault("yahoo.base_url", "https://query2.finance.yahoo.com")
	v.SetDefault("yahoo.cookie_url", "https://fc.yahoo.com")
	v.SetDefault("yahoo.auto_adjust", true)
	v.SetDefault("yahoo.timeout_sec", 30)
	v.SetDefault("yahoo.request_interval_ms", 200)
	v.SetDefault("yahoo.user_agent", "")

	// Macro panel defaults
	v.SetDefault("macro.window_start", "1980-01-31")
	v.SetDefault("macro.window_end", "2025-12-31")
	v.SetDefault("macro.yoy_lag", 12)
	v.SetDefault("macro.output_dir", "data")
	v.SetDefault("macro.file", "macro_panel.csv")

	// Download defaults
	v.SetDefault("download.output_dir", "data/fred")
	v.SetDefault("download.observation_start", "")
	v.SetDefault("download.observation_end", "")

	// Firm defaults
	v.SetDefault("firms.tickers_csv", "data/csv/company_names.csv")
	v.SetDefault("firms.output_dir", "data/csv")
	v.SetDefault("firms.period", "2024-09-30")
	v.SetDefault("firms.window_start", "")
	v.SetDefault("firms.window_end", "")
	v.SetDefault("firms.combined_file", firm.DefaultCombinedFile)
	v.SetDefault("firms.ticker_interval_ms", firm.DefaultTickerInterval.Milliseconds())

	v.SetDefault("output.formats", []string{"csv"})
	v.SetDefault("analysis.concurrent_fetches", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// applyListDefaults fills the series lists, which viper cannot default
// as structured values.
func applyListDefaults(cfg *Config) {
	if len(cfg.Macro.Series) == 0 {
		cfg.Macro.Series = append([]macro.SeriesSpec(nil), macro.DefaultSeries...)
	}
	if len(cfg.Macro.YoY) == 0 {
		cfg.Macro.YoY = append([]macro.YoYSpec(nil), macro.DefaultYoY...)
	}
	if len(cfg.Macro.Columns) == 0 {
		cfg.Macro.Columns = append([]string(nil), macro.DefaultColumns...)
	}
	if len(cfg.Download.Series) == 0 {
		cfg.Download.Series = append([]macro.DownloadSpec(nil), macro.DefaultDownloads...)
	}
}

// overrideFromEnv applies the plain FRED_API_KEY variable when the
// prefixed one is not set.
func overrideFromEnv(cfg *Config) {
	if os.Getenv(EnvPrefix+"_FRED_API_KEY") != "" {
		return
	}
	if key := os.Getenv("FRED_API_KEY"); key != "" {
		cfg.FRED.APIKey = key
	}
}

// loadDotEnv loads ./.env without overriding variables already set.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// ── Typed accessors ──

// Window returns the panel date window.
func (c MacroConfig) Window() (start, end time.Time, err error) {
	if start, err = utils.ParseDate(c.WindowStart); err != nil {
		return
	}
	end, err = utils.ParseDate(c.WindowEnd)
	return
}

// PanelConfig converts the section to a macro.PanelConfig.
func (c *Config) PanelConfig() (macro.PanelConfig, error) {
	start, end, err := c.Macro.Window()
	if err != nil {
		return macro.PanelConfig{}, err
	}
	return macro.PanelConfig{
		Series:      c.Macro.Series,
		YoY:         c.Macro.YoY,
		Columns:     c.Macro.Columns,
		WindowStart: start,
		WindowEnd:   end,
		YoYLag:      c.Macro.YoYLag,
		Concurrency: c.Analysis.ConcurrentFetches,
	}, nil
}

// DownloadConfig converts the section to a macro.DownloadConfig.
func (c *Config) DownloadConfig() (macro.DownloadConfig, error) {
	start, err := OptionalDate(c.Download.ObservationStart)
	if err != nil {
		return macro.DownloadConfig{}, err
	}
	end, err := OptionalDate(c.Download.ObservationEnd)
	if err != nil {
		return macro.DownloadConfig{}, err
	}
	return macro.DownloadConfig{
		Series:    c.Download.Series,
		OutputDir: c.Download.OutputDir,
		Start:     start,
		End:       end,
		Interval:  Millis(c.FRED.RequestIntervalMs),
	}, nil
}

// BatchConfig converts the firms section to a firm.BatchConfig.
func (c *Config) BatchConfig() (firm.BatchConfig, error) {
	period, err := utils.ParseDate(c.Firms.Period)
	if err != nil {
		return firm.BatchConfig{}, err
	}
	start, err := OptionalDate(c.Firms.WindowStart)
	if err != nil {
		return firm.BatchConfig{}, err
	}
	end, err := OptionalDate(c.Firms.WindowEnd)
	if err != nil {
		return firm.BatchConfig{}, err
	}
	return firm.BatchConfig{
		Period:       period,
		WindowStart:  start,
		WindowEnd:    end,
		OutputDir:    c.Firms.OutputDir,
		CombinedFile: c.Firms.CombinedFile,
		Formats:      c.Output.Formats,
		Interval:     Millis(c.Firms.TickerIntervalMs),
	}, nil
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// Seconds converts a second setting to a duration.
func Seconds(s int) time.Duration { return time.Duration(s) * time.Second }

// OptionalDate parses a YYYY-MM-DD setting; empty yields the zero time.
func OptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return utils.ParseDate(s)
}
