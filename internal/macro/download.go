package macro

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/export"
	"github.com/econlab/regdata/internal/infra"
)

// DownloadSpec names a FRED series and the CSV file it is saved to.
type DownloadSpec struct {
	ID   string `mapstructure:"id" yaml:"id" validate:"required"`
	File string `mapstructure:"file" yaml:"file" validate:"required"`
}

// DefaultDownloads are the raw series saved by the downloader.
var DefaultDownloads = []DownloadSpec{
	{ID: "DGS10", File: "dgs10_10y_treasury_yield.csv"},
	{ID: "FEDFUNDS", File: "fedfunds_effective_rate.csv"},
	{ID: "UNRATE", File: "unrate_unemployment_rate.csv"},
	{ID: "BAA", File: "baa_moodys_baa_yield.csv"},
	{ID: "CPIAUCSL", File: "cpiaucsl_cpi_index.csv"},
	{ID: "BBKMGDP", File: "bbkmgdp_monthly_real_gdp.csv"},
}

// FailureClass tells apart HTTP status errors, transport errors and the rest.
type FailureClass string

const (
	FailureHTTP       FailureClass = "http"
	FailureRequest    FailureClass = "request"
	FailureUnexpected FailureClass = "unexpected"
)

// Classify maps an error to its FailureClass.
func Classify(err error) FailureClass {
	var httpErr *infra.ErrHTTP
	if errors.As(err, &httpErr) {
		return FailureHTTP
	}
	var reqErr *infra.ErrRequest
	if errors.As(err, &reqErr) {
		return FailureRequest
	}
	return FailureUnexpected
}

// DownloadFailure records one series that could not be saved.
type DownloadFailure struct {
	ID    string
	Class FailureClass
	Err   error
}

// DownloadSummary reports the outcome of a download run.
type DownloadSummary struct {
	Saved  []string // file paths
	Failed []DownloadFailure
}

// Err combines the per-series errors, or returns nil.
func (s *DownloadSummary) Err() error {
	var err error
	for _, f := range s.Failed {
		err = multierr.Append(err, fmt.Errorf("%s: %w", f.ID, f.Err))
	}
	return err
}

// DownloadConfig controls a Downloader.
type DownloadConfig struct {
	Series    []DownloadSpec
	OutputDir string
	Start     time.Time // zero for full history
	End       time.Time
	Interval  time.Duration // pause between series
}

// Downloader saves each configured series as a date,value CSV.
type Downloader struct {
	src     SeriesSource
	cfg     DownloadConfig
	limiter *infra.RateLimiter
	logger  *zap.Logger
}

// NewDownloader creates a Downloader. A nil logger discards output.
func NewDownloader(src SeriesSource, cfg DownloadConfig, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{src: src, cfg: cfg, limiter: infra.NewInterval(cfg.Interval), logger: logger}
}

// Run downloads every series in order. A failed series is logged with its
// class and skipped; only a cancelled context stops the loop early. The
// combined failures are logged once at Warn after the loop.
func (d *Downloader) Run(ctx context.Context) (*DownloadSummary, error) {
	summary := &DownloadSummary{}
	for _, spec := range d.cfg.Series {
		if err := d.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		path, n, err := d.downloadOne(ctx, spec)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			class := Classify(err)
			summary.Failed = append(summary.Failed, DownloadFailure{ID: spec.ID, Class: class, Err: err})
			d.logger.Error("series download failed",
				zap.String("series", spec.ID),
				zap.String("reason", string(class)),
				zap.Error(err))
			continue
		}
		summary.Saved = append(summary.Saved, path)
		d.logger.Info("saved series",
			zap.String("series", spec.ID),
			zap.String("path", path),
			zap.Int("observations", n))
	}
	if err := summary.Err(); err != nil {
		d.logger.Warn("download finished with failures",
			zap.Int("saved", len(summary.Saved)),
			zap.Int("failed", len(summary.Failed)),
			zap.Error(err))
	}
	return summary, nil
}

func (d *Downloader) downloadOne(ctx context.Context, spec DownloadSpec) (string, int, error) {
	obs, err := d.src.Observations(ctx, spec.ID, d.cfg.Start, d.cfg.End)
	if err != nil {
		return "", 0, err
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	t := export.Table{Name: spec.ID, Header: []string{"date", "value"}, Rows: make([][]any, len(obs))}
	for i, o := range obs {
		t.Rows[i] = []any{o.Date, o.Value}
	}
	path := filepath.Join(d.cfg.OutputDir, spec.File)
	if err := export.CSV(path, t); err != nil {
		return "", 0, err
	}
	return path, len(obs), nil
}
