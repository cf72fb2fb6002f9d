// Package firm computes the firm-quarter regression variables from
// quarterly statements, daily bars and the company profile.
package firm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/econlab/regdata/internal/export"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// MarketData is the Yahoo Finance access the extractor needs. History
// returns daily bars whose exchange-local trading day d has start <= d < end.
type MarketData interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]models.OHLCV, error)
	Statements(ctx context.Context, symbol string, kind models.StatementKind) (*models.Statements, error)
	Profile(ctx context.Context, symbol string) (*models.Profile, error)
}

// Mode selects how missing inputs are handled.
type Mode int

const (
	// Strict requires every field and performs unguarded arithmetic.
	Strict Mode = iota
	// Lenient tolerates alternate labels and turns failed guards into NaN.
	Lenient
)

// Statement labels.
const (
	FieldTotalDebt   = "Total Debt"
	FieldTotalAssets = "Total Assets"
	FieldNetIncome   = "Net Income"
	FieldNetPPE      = "Net PPE"
	FieldBookEquity  = "Common Stock Equity"
	FieldShares      = "Ordinary Shares Number"
	FieldTaxRate     = "Tax Rate For Calcs"
)

// Candidate label lists, in lookup order.
var (
	TotalDebtKeys   = []string{FieldTotalDebt}
	TotalAssetsKeys = []string{FieldTotalAssets}
	NetIncomeKeys   = []string{FieldNetIncome}
	PPEKeys         = []string{FieldNetPPE, "Property Plant Equipment Net", "Property, Plant & Equipment Net"}
	BookEquityKeys  = []string{FieldBookEquity, "Total Stockholder Equity"}
)

// Columns is the output layout of one firm row.
var Columns = []string{
	"Ticker", "Period", "Leverage", "ROA", "Tangibility", "Log_Total_Assets",
	"Market_to_Book", "Log_Market_to_Book", "Effective_Tax_Rate",
	"Realized_Volatility", "Turnover", "Sector", "Industry",
}

// FirstKey returns the first candidate present in st.
func FirstKey(st models.Statement, candidates ...string) (string, bool) {
	for _, k := range candidates {
		if _, ok := st.Values[k]; ok {
			return k, true
		}
	}
	return "", false
}

// Request identifies one firm-quarter. A zero window defaults to
// [quarter start, Period).
type Request struct {
	Ticker      string
	Period      time.Time
	WindowStart time.Time
	WindowEnd   time.Time
}

// QuarterWindow returns the return/volume window for period: from the
// first day of its quarter up to, but excluding, period.
func QuarterWindow(period time.Time) (start, end time.Time) {
	return utils.QuarterStart(period), utils.Day(period)
}

func (r Request) window() (time.Time, time.Time) {
	start, end := QuarterWindow(r.Period)
	if !r.WindowStart.IsZero() {
		start = utils.Day(r.WindowStart)
	}
	if !r.WindowEnd.IsZero() {
		end = utils.Day(r.WindowEnd)
	}
	return start, end
}

// Extractor computes FirmVariables for one ticker at a time.
type Extractor struct {
	md     MarketData
	mode   Mode
	logger *zap.Logger
}

// NewExtractor creates an Extractor. A nil logger discards output.
func NewExtractor(md MarketData, mode Mode, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{md: md, mode: mode, logger: logger}
}

// inputs are the fetched statement columns for the period.
type inputs struct {
	income, balance, cashflow models.Statement
	hasCashflow               bool
}

// Compute fetches the inputs for req and derives the variables.
func (e *Extractor) Compute(ctx context.Context, req Request) (*models.FirmVariables, error) {
	symbol := utils.ToYahooSymbol(utils.NormalizeTicker(req.Ticker))
	if symbol == "" {
		return nil, fmt.Errorf("empty ticker")
	}
	period := utils.Day(req.Period)

	in, err := e.statements(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if e.mode == Strict {
		return e.computeStrict(ctx, req, symbol, period, in)
	}
	return e.computeLenient(ctx, req, symbol, period, in)
}

func (e *Extractor) statements(ctx context.Context, symbol string, period time.Time) (*inputs, error) {
	income, err := e.md.Statements(ctx, symbol, models.IncomeStatementKind)
	if err != nil {
		return nil, fmt.Errorf("income statement: %w", err)
	}
	balance, err := e.md.Statements(ctx, symbol, models.BalanceSheetKind)
	if err != nil {
		return nil, fmt.Errorf("balance sheet: %w", err)
	}
	cashflow, err := e.md.Statements(ctx, symbol, models.CashFlowKind)
	if err != nil {
		return nil, fmt.Errorf("cash flow statement: %w", err)
	}

	in := &inputs{}
	var incOK, balOK bool
	in.income, incOK = income.At(period)
	in.balance, balOK = balance.At(period)
	in.cashflow, in.hasCashflow = cashflow.At(period)

	if !incOK || !balOK || (e.mode == Strict && !in.hasCashflow) {
		err := fmt.Errorf("%s %s: %w", symbol, utils.FormatDate(period), ErrPeriodUnavailable)
		if e.mode == Lenient {
			return nil, &SkipError{Reason: utils.FormatDate(period) + " not available in statements", Err: err}
		}
		return nil, err
	}
	return in, nil
}

// ════════════════════════════════════════════════════════════════════
// Strict
// ════════════════════════════════════════════════════════════════════

func (e *Extractor) computeStrict(ctx context.Context, req Request, symbol string, period time.Time, in *inputs) (*models.FirmVariables, error) {
	var missing error
	field := func(st models.Statement, key string) float64 {
		v, ok := st.Values[key]
		if !ok && missing == nil {
			missing = &ErrMissingField{Field: key}
		}
		return v
	}
	debt := field(in.balance, FieldTotalDebt)
	assets := field(in.balance, FieldTotalAssets)
	netIncome := field(in.income, FieldNetIncome)
	ppe := field(in.balance, FieldNetPPE)
	equity := field(in.balance, FieldBookEquity)
	shares := field(in.balance, FieldShares)
	taxRate := field(in.income, FieldTaxRate)
	if missing != nil {
		return nil, fmt.Errorf("%s: %w", symbol, missing)
	}

	price, err := e.closeAt(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(price) {
		return nil, fmt.Errorf("%s: no close on %s: %w", symbol, utils.FormatDate(period), &ErrMissingField{Field: "Close"})
	}

	start, end := req.window()
	bars, err := e.md.History(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: quarter history: %w", symbol, err)
	}

	profile, err := e.md.Profile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: profile: %w", symbol, err)
	}

	mb := price * shares / equity
	return &models.FirmVariables{
		Ticker:             req.Ticker,
		Period:             period,
		Leverage:           debt / assets,
		ROA:                netIncome / assets,
		Tangibility:        ppe / assets,
		LogTotalAssets:     math.Log(assets),
		MarketToBook:       mb,
		LogMarketToBook:    math.Log(mb),
		EffectiveTaxRate:   taxRate,
		RealizedVolatility: stddev(pctReturns(models.Closes(bars))),
		Turnover:           mean(models.Volumes(bars)) / shares,
		Sector:             profile.Sector,
		Industry:           profile.Industry,
	}, nil
}

// ════════════════════════════════════════════════════════════════════
// Lenient
// ════════════════════════════════════════════════════════════════════

func (e *Extractor) computeLenient(ctx context.Context, req Request, symbol string, period time.Time, in *inputs) (*models.FirmVariables, error) {
	debtKey, okDebt := FirstKey(in.balance, TotalDebtKeys...)
	assetsKey, okAssets := FirstKey(in.balance, TotalAssetsKeys...)
	if !okDebt || !okAssets {
		return nil, skip("missing Total Debt/Total Assets")
	}
	incomeKey, ok := FirstKey(in.income, NetIncomeKeys...)
	if !ok {
		return nil, skip("missing Net Income")
	}

	debt := in.balance.Values[debtKey]
	assets := in.balance.Values[assetsKey]
	netIncome := in.income.Values[incomeKey]

	ppe := math.NaN()
	if k, ok := FirstKey(in.balance, PPEKeys...); ok {
		ppe = in.balance.Values[k]
	}
	equity := math.NaN()
	if k, ok := FirstKey(in.balance, BookEquityKeys...); ok {
		equity = in.balance.Values[k]
	}

	v := &models.FirmVariables{
		Ticker:             req.Ticker,
		Period:             period,
		Leverage:           math.NaN(),
		ROA:                math.NaN(),
		Tangibility:        math.NaN(),
		LogTotalAssets:     math.NaN(),
		MarketToBook:       math.NaN(),
		LogMarketToBook:    math.NaN(),
		EffectiveTaxRate:   math.NaN(),
		RealizedVolatility: math.NaN(),
		Turnover:           math.NaN(),
	}

	if present(assets) && assets != 0 {
		v.Leverage = debt / assets
		v.ROA = netIncome / assets
		v.Tangibility = ppe / assets
	}
	if present(assets) && assets > 0 {
		v.LogTotalAssets = math.Log(assets)
	}

	profile, err := e.md.Profile(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("profile unavailable", zap.String("ticker", symbol), zap.Error(err))
		profile = nil
	}
	if profile != nil {
		v.Sector = profile.Sector
		v.Industry = profile.Industry
	}

	shares := math.NaN()
	if s, ok := in.balance.Values[FieldShares]; ok {
		shares = s
	}
	if (!present(shares) || shares == 0) && profile != nil {
		shares = profile.SharesOutstanding
	}

	price, err := e.closeAt(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if present(price) && present(shares) {
		marketCap := price * shares
		if present(equity) && equity != 0 {
			v.MarketToBook = marketCap / equity
		}
	}
	if present(v.MarketToBook) && v.MarketToBook > 0 {
		v.LogMarketToBook = math.Log(v.MarketToBook)
	}

	if t, ok := in.income.Values[FieldTaxRate]; ok {
		v.EffectiveTaxRate = t
	}

	start, end := req.window()
	bars, err := e.md.History(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: quarter history: %w", symbol, err)
	}
	if returns := pctReturns(models.Closes(bars)); len(returns) > 0 {
		v.RealizedVolatility = stddev(returns)
	}
	if avgVol := mean(models.Volumes(bars)); present(avgVol) && present(shares) && shares != 0 {
		v.Turnover = avgVol / shares
	}
	return v, nil
}

// closeAt returns the last close of the period's trading day, or NaN.
func (e *Extractor) closeAt(ctx context.Context, symbol string, period time.Time) (float64, error) {
	bars, err := e.md.History(ctx, symbol, period, period.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("%s: price history: %w", symbol, err)
	}
	closes := models.Closes(bars)
	if len(closes) == 0 {
		return math.NaN(), nil
	}
	return closes[len(closes)-1], nil
}

// IsSkip reports whether err marks a skipped ticker, and its reason.
func IsSkip(err error) (string, bool) {
	var s *SkipError
	if errors.As(err, &s) {
		return s.Reason, true
	}
	return "", false
}

// Row converts v to an export row in Columns order.
func Row(v *models.FirmVariables) []any {
	return []any{
		v.Ticker, v.Period, v.Leverage, v.ROA, v.Tangibility, v.LogTotalAssets,
		v.MarketToBook, v.LogMarketToBook, v.EffectiveTaxRate,
		v.RealizedVolatility, v.Turnover, v.Sector, v.Industry,
	}
}

// Record is the CSV layout of one row; its csv tags are Columns.
type Record struct {
	Ticker             string       `csv:"Ticker"`
	Period             string       `csv:"Period"` // YYYY-MM-DD
	Leverage           export.Float `csv:"Leverage"`
	ROA                export.Float `csv:"ROA"`
	Tangibility        export.Float `csv:"Tangibility"`
	LogTotalAssets     export.Float `csv:"Log_Total_Assets"`
	MarketToBook       export.Float `csv:"Market_to_Book"`
	LogMarketToBook    export.Float `csv:"Log_Market_to_Book"`
	EffectiveTaxRate   export.Float `csv:"Effective_Tax_Rate"`
	RealizedVolatility export.Float `csv:"Realized_Volatility"`
	Turnover           export.Float `csv:"Turnover"`
	Sector             string       `csv:"Sector"`
	Industry           string       `csv:"Industry"`
}

// NewRecord converts v to its CSV record.
func NewRecord(v *models.FirmVariables) Record {
	return Record{
		Ticker:             v.Ticker,
		Period:             utils.FormatDate(v.Period),
		Leverage:           export.Float(v.Leverage),
		ROA:                export.Float(v.ROA),
		Tangibility:        export.Float(v.Tangibility),
		LogTotalAssets:     export.Float(v.LogTotalAssets),
		MarketToBook:       export.Float(v.MarketToBook),
		LogMarketToBook:    export.Float(v.LogMarketToBook),
		EffectiveTaxRate:   export.Float(v.EffectiveTaxRate),
		RealizedVolatility: export.Float(v.RealizedVolatility),
		Turnover:           export.Float(v.Turnover),
		Sector:             v.Sector,
		Industry:           v.Industry,
	}
}

// FirmTable builds an export table of rows, in order. The CSV is
// marshalled from Records; XLSX and Parquet use Rows.
func FirmTable(name string, rows []*models.FirmVariables) export.Table {
	t := export.Table{Name: name, Header: append([]string(nil), Columns...)}
	records := make([]Record, 0, len(rows))
	for _, v := range rows {
		t.Rows = append(t.Rows, Row(v))
		records = append(records, NewRecord(v))
	}
	t.Records = records
	return t
}
