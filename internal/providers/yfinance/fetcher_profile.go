package yfinance

import (
	"context"
	"fmt"
	"math"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// --- EquityInfo fetcher ---

type equityInfoFetcher struct {
	provider.BaseFetcher
	api *api
}

func newEquityInfoFetcher(a *api, limiter *infra.RateLimiter) *equityInfoFetcher {
	return &equityInfoFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelEquityInfo,
			"Company profile (sector, industry, shares outstanding) from Yahoo Finance",
			[]string{provider.ParamSymbol},
			nil,
			limiter,
		),
		api: a,
	}
}

func (f *equityInfoFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	yfTicker := utils.ToYahooSymbol(params[provider.ParamSymbol])

	resp, err := f.quoteSummary(ctx, yfTicker)
	if isAuthError(err) {
		// Stale crumb: start a new session once.
		f.api.session.Reset()
		resp, err = f.quoteSummary(ctx, yfTicker)
	}
	if err != nil {
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w", yfTicker, err)
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yfinance API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no profile for %s", yfTicker)
	}

	r := resp.QuoteSummary.Result[0]
	profile := &models.Profile{
		Symbol:            yfTicker,
		SharesOutstanding: math.NaN(),
	}
	if r.AssetProfile != nil {
		profile.Sector = r.AssetProfile.Sector
		profile.Industry = r.AssetProfile.Industry
	}
	if r.DefaultKeyStatistics != nil {
		profile.SharesOutstanding = finVal(r.DefaultKeyStatistics.SharesOutstanding)
	}
	if r.Price != nil {
		profile.Name = coalesce(r.Price.LongName, r.Price.ShortName)
	}

	return newResult(profile), nil
}

func (f *equityInfoFetcher) quoteSummary(ctx context.Context, yfTicker string) (*yfQuoteSummaryResponse, error) {
	crumb, err := f.api.session.Crumb(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	var resp yfQuoteSummaryResponse
	err = f.api.getJSON(ctx, "/v10/finance/quoteSummary/"+yfTicker, map[string]string{
		"modules": "assetProfile,defaultKeyStatistics,price",
		"crumb":   crumb,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// finVal returns the raw value, or NaN when Yahoo omitted it.
func finVal(v yfFinVal) float64 {
	if v.Raw == nil {
		return math.NaN()
	}
	return *v.Raw
}
