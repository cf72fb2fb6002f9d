package yfinance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// --- EquityHistorical fetcher ---

type equityHistoricalFetcher struct {
	provider.BaseFetcher
	api *api
}

func newEquityHistoricalFetcher(a *api, limiter *infra.RateLimiter) *equityHistoricalFetcher {
	return &equityHistoricalFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelEquityHistorical,
			"Historical OHLCV price data from Yahoo Finance",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamStartDate, provider.ParamEndDate, provider.ParamInterval, provider.ParamAutoAdjust},
			limiter,
		),
		api: a,
	}
}

func (f *equityHistoricalFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	yfTicker := utils.ToYahooSymbol(params[provider.ParamSymbol])

	start, end, err := dateRange(params)
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", yfTicker, err)
	}

	interval := params[provider.ParamInterval]
	if interval == "" {
		interval = "1d"
	}
	autoAdjust := params[provider.ParamAutoAdjust] != "false"

	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	// Bars are windowed by exchange-local day below, so the request is
	// padded a day each side to cover exchanges away from UTC.
	var resp yfChartResponse
	err = f.api.getJSON(ctx, "/v8/finance/chart/"+yfTicker, map[string]string{
		"period1":              fmt.Sprint(start.AddDate(0, 0, -1).Unix()),
		"period2":              fmt.Sprint(end.AddDate(0, 0, 1).Unix()),
		"interval":             interval,
		"includeAdjustedClose": "true",
		"events":               "div,splits",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", yfTicker, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for %s", yfTicker)
	}

	candles := parseCandles(resp.Chart.Result[0], autoAdjust)
	return newResult(windowBars(candles, start, end)), nil
}

// --- Helpers ---

// parseCandles converts YF chart data to OHLCV slices with timestamps in
// the exchange's time zone. Null points become NaN. With autoAdjust, Close
// is replaced by the adjusted close and Open, High and Low are scaled by
// the same factor.
func parseCandles(result yfChartResult, autoAdjust bool) []models.OHLCV {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	loc := exchangeLocation(result.Meta)

	q := result.Indicators.Quote[0]
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	candles := make([]models.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := models.OHLCV{
			Timestamp: time.Unix(ts, 0).In(loc),
			Open:      at(q.Open, i),
			High:      at(q.High, i),
			Low:       at(q.Low, i),
			Close:     at(q.Close, i),
			AdjClose:  at(adjCloses, i),
			Volume:    at(q.Volume, i),
		}
		if autoAdjust && !math.IsNaN(c.AdjClose) && !math.IsNaN(c.Close) && c.Close != 0 {
			ratio := c.AdjClose / c.Close
			c.Open *= ratio
			c.High *= ratio
			c.Low *= ratio
			c.Close = c.AdjClose
		}
		candles = append(candles, c)
	}
	return candles
}

// exchangeLocation is the exchange's IANA zone, else its fixed GMT
// offset, else UTC.
func exchangeLocation(meta yfChartMeta) *time.Location {
	if meta.ExchangeTimezone != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezone); err == nil {
			return loc
		}
	}
	if meta.GMTOffset != 0 {
		return time.FixedZone(meta.Timezone, meta.GMTOffset)
	}
	return time.UTC
}

// windowBars keeps bars whose exchange-local trading day d satisfies
// start <= d < end.
func windowBars(bars []models.OHLCV, start, end time.Time) []models.OHLCV {
	out := bars[:0]
	for _, b := range bars {
		d := utils.Day(b.Timestamp)
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func at(vals []*float64, i int) float64 {
	if i < len(vals) && vals[i] != nil {
		return *vals[i]
	}
	return math.NaN()
}
