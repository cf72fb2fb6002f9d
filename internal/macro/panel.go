// Package macro builds the month-end macroeconomic panel and downloads raw
// FRED series to per-series CSV files.
package macro

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/econlab/regdata/internal/export"
	"github.com/econlab/regdata/internal/timeseries"
	"github.com/econlab/regdata/pkg/models"
)

// SeriesSource is the FRED access the panel and downloader need.
type SeriesSource interface {
	Observations(ctx context.Context, seriesID string, start, end time.Time) ([]models.Observation, error)
	SeriesInfo(ctx context.Context, seriesID string) (*models.SeriesInfo, error)
}

// SeriesSpec maps a panel column to a FRED series ID.
type SeriesSpec struct {
	Name string `mapstructure:"name" yaml:"name" validate:"required"`
	ID   string `mapstructure:"id" yaml:"id" validate:"required"`
}

// YoYSpec derives a year-over-year percent change column from Source.
type YoYSpec struct {
	Name   string `mapstructure:"name" yaml:"name" validate:"required"`
	Source string `mapstructure:"source" yaml:"source" validate:"required"`
}

// DefaultSeries are the panel inputs, in column order.
var DefaultSeries = []SeriesSpec{
	{Name: "yield_10y", ID: "DGS10"},
	{Name: "cpi", ID: "CPIAUCSL"},
	{Name: "real_pce", ID: "PCEC96"},
	{Name: "fedfunds", ID: "FEDFUNDS"},
	{Name: "unrate", ID: "UNRATE"},
	{Name: "credit_spread", ID: "BAA10YM"},
}

// DefaultYoY are the derived inflation and consumption growth columns.
var DefaultYoY = []YoYSpec{
	{Name: "cpi_yoy", Source: "cpi"},
	{Name: "pce_yoy", Source: "real_pce"},
}

// DefaultColumns is the final panel layout.
var DefaultColumns = []string{"yield_10y", "cpi_yoy", "pce_yoy", "fedfunds", "unrate", "credit_spread"}

// PanelConfig controls Build.
type PanelConfig struct {
	Series      []SeriesSpec
	YoY         []YoYSpec
	Columns     []string
	WindowStart time.Time
	WindowEnd   time.Time
	YoYLag      int // rows, 12 for monthly data
	Concurrency int
}

// DefaultPanelConfig returns the 1980-01 to 2025-12 panel.
func DefaultPanelConfig() PanelConfig {
	return PanelConfig{
		Series:      DefaultSeries,
		YoY:         DefaultYoY,
		Columns:     DefaultColumns,
		WindowStart: time.Date(1980, 1, 31, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		YoYLag:      12,
		Concurrency: 4,
	}
}

// Builder assembles the macro panel.
type Builder struct {
	src    SeriesSource
	cfg    PanelConfig
	logger *zap.Logger
}

// NewBuilder creates a Builder. A nil logger discards output.
func NewBuilder(src SeriesSource, cfg PanelConfig, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.YoYLag <= 0 {
		cfg.YoYLag = 12
	}
	return &Builder{src: src, cfg: cfg, logger: logger}
}

// Build fetches every series, resamples each to month-end, aligns them,
// trims to the window, adds the YoY columns, selects the final columns
// and drops incomplete rows. Any fetch failure fails the panel.
func (b *Builder) Build(ctx context.Context) (*timeseries.Frame, error) {
	if len(b.cfg.Series) == 0 {
		return nil, fmt.Errorf("macro panel: no series configured")
	}

	monthly := make([]timeseries.Series, len(b.cfg.Series))
	g, gctx := errgroup.WithContext(ctx)
	if b.cfg.Concurrency > 0 {
		g.SetLimit(b.cfg.Concurrency)
	}
	for i, spec := range b.cfg.Series {
		g.Go(func() error {
			s, err := b.fetchMonthly(gctx, spec)
			if err != nil {
				return fmt.Errorf("series %s (%s): %w", spec.Name, spec.ID, err)
			}
			monthly[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	frame := timeseries.Align(monthly...).Trim(b.cfg.WindowStart, b.cfg.WindowEnd)

	for _, y := range b.cfg.YoY {
		src, ok := frame.Column(y.Source)
		if !ok {
			return nil, fmt.Errorf("yoy column %s: unknown source column %q", y.Name, y.Source)
		}
		yoy := timeseries.Scale(timeseries.PctChange(src, b.cfg.YoYLag), 100)
		if err := frame.SetColumn(y.Name, yoy); err != nil {
			return nil, err
		}
	}

	cols := b.cfg.Columns
	if len(cols) == 0 {
		cols = frame.Columns()
	}
	frame, err := frame.Select(cols...)
	if err != nil {
		return nil, err
	}
	return frame.DropNA(), nil
}

func (b *Builder) fetchMonthly(ctx context.Context, spec SeriesSpec) (timeseries.Series, error) {
	obs, err := b.src.Observations(ctx, spec.ID, time.Time{}, time.Time{})
	if err != nil {
		return timeseries.Series{}, err
	}
	raw := timeseries.FromObservations(spec.Name, obs)

	freq := ""
	sub, known := false, false
	info, err := b.src.SeriesInfo(ctx, spec.ID)
	if err != nil {
		if ctx.Err() != nil {
			return timeseries.Series{}, ctx.Err()
		}
		b.logger.Warn("series metadata unavailable, inferring frequency",
			zap.String("series", spec.ID), zap.Error(err))
	} else {
		freq = info.FrequencyShort
		sub, known = timeseries.IsSubMonthly(freq)
	}
	if !known {
		sub = timeseries.InferSubMonthly(raw)
	}

	b.logger.Info("fetched series",
		zap.String("series", spec.ID),
		zap.String("column", spec.Name),
		zap.Int("observations", len(obs)),
		zap.String("frequency", freq),
		zap.Bool("sub_monthly", sub))

	return timeseries.ToMonthEnd(raw, sub), nil
}

// PanelTable converts the panel to an export table with a leading date column.
func PanelTable(f *timeseries.Frame) export.Table {
	t := export.Table{Name: "macro_panel", Header: append([]string{"date"}, f.Columns()...)}
	for i := 0; i < f.Len(); i++ {
		d, vals := f.Row(i)
		row := make([]any, 0, len(vals)+1)
		row = append(row, d)
		for _, v := range vals {
			row = append(row, v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Describe writes the first and last n rows and the shape of f.
func Describe(w io.Writer, f *timeseries.Frame, n int) error {
	if err := f.Head(n).Format(w); err != nil {
		return err
	}
	fmt.Fprintln(w, "...")
	if err := f.Tail(n).Format(w); err != nil {
		return err
	}
	rows, cols := f.Shape()
	_, err := fmt.Fprintf(w, "shape: (%d, %d)\n", rows, cols)
	return err
}
