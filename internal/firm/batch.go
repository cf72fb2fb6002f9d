package firm

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/export"
	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// DefaultTickerInterval is the pause between tickers.
const DefaultTickerInterval = 300 * time.Millisecond

// DefaultCombinedFile is the name of the combined dataset.
const DefaultCombinedFile = "all_firm_variables.csv"

// BatchConfig controls a Batch run.
type BatchConfig struct {
	Period       time.Time
	WindowStart  time.Time // zero for the quarter window
	WindowEnd    time.Time
	OutputDir    string
	CombinedFile string
	Formats      []string // extra formats for the combined dataset
	Interval     time.Duration // zero disables pacing
}

// Skipped records a ticker that was not saved.
type Skipped struct {
	Ticker string
	Reason string
}

// BatchResult summarises a Batch run.
type BatchResult struct {
	Processed int
	Saved     []string // per-ticker file paths
	Skipped   []Skipped
	Rows      []*models.FirmVariables
	Combined  []string // combined dataset paths, empty when no rows
}

// Progress is called after each ticker with its 1-based position.
type Progress func(i, n int, ticker string)

// Batch runs the lenient extractor over a ticker list.
type Batch struct {
	ext      *Extractor
	cfg      BatchConfig
	limiter  *infra.RateLimiter
	logger   *zap.Logger
	progress Progress
}

// NewBatch creates a Batch. A nil logger discards output.
func NewBatch(md MarketData, cfg BatchConfig, logger *zap.Logger) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CombinedFile == "" {
		cfg.CombinedFile = DefaultCombinedFile
	}
	return &Batch{
		ext:     NewExtractor(md, Lenient, logger),
		cfg:     cfg,
		limiter: infra.NewInterval(cfg.Interval),
		logger:  logger,
	}
}

// OnProgress registers a progress callback.
func (b *Batch) OnProgress(fn Progress) { b.progress = fn }

// Run processes tickers sequentially. Per-ticker failures are logged and
// recorded as skipped; only a cancelled context or a failure to write the
// combined file is returned as an error.
func (b *Batch) Run(ctx context.Context, tickers []string) (*BatchResult, error) {
	res := &BatchResult{}
	n := len(tickers)
	for i, sym := range tickers {
		if err := b.limiter.Wait(ctx); err != nil {
			return res, err
		}
		b.logger.Info(fmt.Sprintf("[%d/%d] Processing %s ...", i+1, n, sym), zap.String("ticker", sym))
		res.Processed++

		path, row, err := b.one(ctx, sym)
		switch {
		case err == nil:
			res.Saved = append(res.Saved, path)
			res.Rows = append(res.Rows, row)
			b.logger.Info("saved", zap.String("ticker", sym), zap.String("path", path))
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			reason, isSkip := IsSkip(err)
			if isSkip {
				b.logger.Warn(fmt.Sprintf("Skipping %s: %s", sym, reason), zap.String("ticker", sym), zap.String("reason", reason))
			} else {
				reason = err.Error()
				b.logger.Error(fmt.Sprintf("!! Error on %s: %v", sym, err), zap.String("ticker", sym), zap.Error(err))
			}
			res.Skipped = append(res.Skipped, Skipped{Ticker: sym, Reason: reason})
		}
		if b.progress != nil {
			b.progress(i+1, n, sym)
		}
	}

	if len(res.Rows) == 0 {
		b.logger.Warn("No rows saved. Check logs above.")
		return res, nil
	}
	paths, err := export.WriteAll(b.cfg.OutputDir, b.cfg.CombinedFile, b.cfg.Formats, FirmTable("firm_variables", res.Rows))
	if err != nil {
		return res, fmt.Errorf("writing combined dataset: %w", err)
	}
	res.Combined = paths
	b.logger.Info("combined dataset saved", zap.Strings("paths", paths), zap.Int("rows", len(res.Rows)))
	return res, nil
}

func (b *Batch) one(ctx context.Context, sym string) (string, *models.FirmVariables, error) {
	row, err := b.ext.Compute(ctx, Request{
		Ticker:      sym,
		Period:      b.cfg.Period,
		WindowStart: b.cfg.WindowStart,
		WindowEnd:   b.cfg.WindowEnd,
	})
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(b.cfg.OutputDir, utils.SafeFileName(sym)+"_variables.csv")
	if err := export.CSV(path, FirmTable(sym, []*models.FirmVariables{row})); err != nil {
		return "", nil, err
	}
	return path, row, nil
}
