package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with no home config and no
// key variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, e := range []string{"REGDATA_FRED_API_KEY", "FRED_API_KEY", "REGDATA_LOGGING_LEVEL"} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.FRED.BaseURL != "https://api.stlouisfed.org/fred" {
		t.Errorf("FRED.BaseURL: got %q", cfg.FRED.BaseURL)
	}
	if cfg.FRED.TimeoutSec != 60 {
		t.Errorf("FRED.TimeoutSec: got %d, want 60", cfg.FRED.TimeoutSec)
	}
	if cfg.FRED.RequestIntervalMs != 500 {
		t.Errorf("FRED.RequestIntervalMs: got %d, want 500", cfg.FRED.RequestIntervalMs)
	}
	if cfg.FRED.APIKey != "" {
		t.Errorf("FRED.APIKey should be empty, got %q", cfg.FRED.APIKey)
	}
	if !cfg.Yahoo.AutoAdjust {
		t.Error("Yahoo.AutoAdjust should be true by default")
	}
	if cfg.Yahoo.CookieURL != "https://fc.yahoo.com" {
		t.Errorf("Yahoo.CookieURL: got %q", cfg.Yahoo.CookieURL)
	}

	if len(cfg.Macro.Series) != 6 || cfg.Macro.Series[0].ID != "DGS10" {
		t.Errorf("Macro.Series: got %+v", cfg.Macro.Series)
	}
	if len(cfg.Macro.YoY) != 2 {
		t.Errorf("Macro.YoY: got %+v", cfg.Macro.YoY)
	}
	if cfg.Macro.YoYLag != 12 {
		t.Errorf("Macro.YoYLag: got %d, want 12", cfg.Macro.YoYLag)
	}
	if len(cfg.Download.Series) != 6 || cfg.Download.Series[5].ID != "BBKMGDP" {
		t.Errorf("Download.Series: got %+v", cfg.Download.Series)
	}

	if cfg.Firms.Period != "2024-09-30" {
		t.Errorf("Firms.Period: got %q", cfg.Firms.Period)
	}
	if cfg.Firms.CombinedFile != "all_firm_variables.csv" {
		t.Errorf("Firms.CombinedFile: got %q", cfg.Firms.CombinedFile)
	}
	if cfg.Firms.TickerIntervalMs != 300 {
		t.Errorf("Firms.TickerIntervalMs: got %d, want 300", cfg.Firms.TickerIntervalMs)
	}
	if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != "csv" {
		t.Errorf("Output.Formats: got %v", cfg.Output.Formats)
	}
	if cfg.Analysis.ConcurrentFetches != 4 {
		t.Errorf("Analysis.ConcurrentFetches: got %d, want 4", cfg.Analysis.ConcurrentFetches)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "console")
	}
}

func TestLoadSearchesProjectConfigDir(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), "analysis:\n  concurrent_fetches: 2\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Analysis.ConcurrentFetches != 2 {
		t.Errorf("Analysis.ConcurrentFetches: got %d, want 2", cfg.Analysis.ConcurrentFetches)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "test_config.yaml")
	writeFile(t, cfgPath, `
fred:
  api_key: "abcdef1234567890"
  request_interval_ms: 100
macro:
  series:
    - name: yield_10y
      id: DGS10
    - name: cpi
      id: CPIAUCSL
  yoy:
    - name: cpi_yoy
      source: cpi
  columns: [yield_10y, cpi_yoy]
  window_start: "2000-01-31"
  window_end: "2010-12-31"
download:
  series:
    - id: DGS10
      file: dgs10.csv
  observation_start: "2020-01-01"
firms:
  period: "2024-06-30"
output:
  formats: [csv, xlsx, parquet]
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.FRED.APIKey != "abcdef1234567890" {
		t.Errorf("FRED.APIKey: got %q", cfg.FRED.APIKey)
	}
	if len(cfg.Macro.Series) != 2 || cfg.Macro.Series[1].ID != "CPIAUCSL" {
		t.Errorf("Macro.Series: got %+v", cfg.Macro.Series)
	}
	if len(cfg.Output.Formats) != 3 {
		t.Errorf("Output.Formats: got %v", cfg.Output.Formats)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}

	panel, err := cfg.PanelConfig()
	if err != nil {
		t.Fatalf("PanelConfig() error: %v", err)
	}
	if !panel.WindowStart.Equal(time.Date(2000, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("WindowStart: got %v", panel.WindowStart)
	}
	if panel.Concurrency != 4 || panel.YoYLag != 12 {
		t.Errorf("PanelConfig: got %+v", panel)
	}

	dl, err := cfg.DownloadConfig()
	if err != nil {
		t.Fatalf("DownloadConfig() error: %v", err)
	}
	if dl.Interval != 100*time.Millisecond {
		t.Errorf("Interval: got %v", dl.Interval)
	}
	if !dl.Start.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) || !dl.End.IsZero() {
		t.Errorf("Download window: got %v .. %v", dl.Start, dl.End)
	}

	batch, err := cfg.BatchConfig()
	if err != nil {
		t.Fatalf("BatchConfig() error: %v", err)
	}
	if !batch.Period.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Period: got %v", batch.Period)
	}
	if batch.Interval != 300*time.Millisecond {
		t.Errorf("Interval: got %v", batch.Interval)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	isolate(t)
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Environment ──

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("REGDATA_FRED_API_KEY", "prefixed-key-123456")
	t.Setenv("FRED_API_KEY", "plain-key-123456")
	t.Setenv("REGDATA_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FRED.APIKey != "prefixed-key-123456" {
		t.Errorf("prefixed variable should win, got %q", cfg.FRED.APIKey)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want warn", cfg.Logging.Level)
	}
}

func TestPlainFREDKey(t *testing.T) {
	isolate(t)
	t.Setenv("FRED_API_KEY", "plain-key-123456")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FRED.APIKey != "plain-key-123456" {
		t.Errorf("FRED.APIKey: got %q", cfg.FRED.APIKey)
	}
}

func TestDotEnvLoaded(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "FRED_API_KEY=dotenv-key-123456\n")
	t.Cleanup(func() { os.Unsetenv("FRED_API_KEY") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FRED.APIKey != "dotenv-key-123456" {
		t.Errorf("FRED.APIKey: got %q", cfg.FRED.APIKey)
	}
}

// ── Validation ──

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"log level", "logging:\n  level: verbose\n", "logging.level must be one of"},
		{"log format", "logging:\n  format: text\n", "logging.format must be one of"},
		{"base url", "fred:\n  base_url: not a url\n", "fred.base_url must be a URL"},
		{"window date", "macro:\n  window_start: 1980/01/31\n", "macro.window_start must be YYYY-MM-DD"},
		{"period", "firms:\n  period: Q3\n", "firms.period must be YYYY-MM-DD"},
		{"format", "output:\n  formats: [csv, json]\n", "output.formats[1] must be one of"},
		{"window order", "macro:\n  window_start: \"2020-01-31\"\n  window_end: \"2010-01-31\"\n", "before macro.window_start"},
		{"series id", "macro:\n  series:\n    - name: x\n", "macro.series[0].id is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.yaml")
			writeFile(t, path, tc.yaml)
			_, err := LoadFromFile(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestNewValidatorRegistersDate(t *testing.T) {
	v, err := newValidator()
	if err != nil {
		t.Fatalf("newValidator: %v", err)
	}
	if err := v.Var("2024-09-30", "date"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	if err := v.Var("2024-13-01", "date"); err == nil {
		t.Error("invalid date accepted")
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys ──

func TestCheckAPIKeysNone(t *testing.T) {
	isolate(t)
	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet || statuses[0].Source != KeySourceNone {
		t.Errorf("got %+v", statuses[0])
	}
}

func TestCheckAPIKeysSource(t *testing.T) {
	isolate(t)
	cfg := &Config{FRED: FREDConfig{APIKey: "abcdef1234567890"}}

	s := CheckAPIKeys(cfg)[0]
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "abc...890" {
		t.Errorf("Masked: got %q", s.Masked)
	}

	t.Setenv("FRED_API_KEY", "abcdef1234567890")
	if s := CheckAPIKeys(cfg)[0]; s.Source != KeySourceEnv {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
	}
}
