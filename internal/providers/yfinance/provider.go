// Package yfinance implements the Yahoo Finance data provider.
// It wraps Yahoo Finance's public APIs (v8 chart, fundamentals-timeseries,
// v10 quoteSummary) into the standard provider/fetcher framework.
//
// Yahoo Finance is a free, no-API-key provider. quoteSummary requires a
// cookie and crumb, which the provider obtains on first use.
package yfinance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

const providerName = "yfinance"

const (
	// DefaultBaseURL serves chart, fundamentals, quoteSummary and getcrumb.
	DefaultBaseURL = "https://query2.finance.yahoo.com"
	// DefaultCookieURL hands out the session cookie the crumb is bound to.
	DefaultCookieURL = "https://fc.yahoo.com"
)

// DefaultRequestInterval spaces requests to stay clear of Yahoo throttling.
const DefaultRequestInterval = 200 * time.Millisecond

// Provider implements provider.Provider for Yahoo Finance.
type Provider struct {
	provider.BaseProvider
	api        *api
	interval   time.Duration
	autoAdjust bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.api.baseURL = strings.TrimRight(u, "/") }
}

// WithCookieURL overrides the URL visited to obtain the session cookie.
func WithCookieURL(u string) Option {
	return func(p *Provider) { p.api.session.cookieURL = u }
}

// WithClient sets the HTTP client. The client's cookie jar holds the session.
func WithClient(c *infra.Client) Option {
	return func(p *Provider) {
		p.api.client = c
		p.api.session.client = c
	}
}

// WithRequestInterval sets the minimum spacing between requests.
func WithRequestInterval(d time.Duration) Option {
	return func(p *Provider) { p.interval = d }
}

// WithAutoAdjust selects split/dividend-adjusted prices for History.
func WithAutoAdjust(on bool) Option {
	return func(p *Provider) { p.autoAdjust = on }
}

// New creates a new YFinance provider and registers its fetchers.
func New(opts ...Option) *Provider {
	client := infra.NewClient(30*time.Second, "")
	a := &api{
		baseURL: DefaultBaseURL,
		client:  client,
	}
	a.session = &session{client: client, cookieURL: DefaultCookieURL, api: a}

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Yahoo Finance - prices, statements and company profiles",
			"https://finance.yahoo.com",
			nil, // no credentials required
		),
		api:        a,
		interval:   DefaultRequestInterval,
		autoAdjust: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	limiter := infra.NewInterval(p.interval)

	// --- Equity / Price ---
	p.RegisterFetcher(newEquityHistoricalFetcher(a, limiter))
	p.RegisterFetcher(newEquityInfoFetcher(a, limiter))

	// --- Equity / Fundamentals ---
	p.RegisterFetcher(newStatementFetcher(a, limiter, models.IncomeStatementKind))
	p.RegisterFetcher(newStatementFetcher(a, limiter, models.BalanceSheetKind))
	p.RegisterFetcher(newStatementFetcher(a, limiter, models.CashFlowKind))

	return p
}

// Ping checks connectivity to Yahoo Finance.
func (p *Provider) Ping(ctx context.Context) error {
	var resp yfChartResponse
	if err := p.api.getJSON(ctx, "/v8/finance/chart/AAPL", map[string]string{"range": "1d", "interval": "1d"}, &resp); err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	return nil
}

// History returns daily bars with start <= timestamp < end.
func (p *Provider) History(ctx context.Context, symbol string, start, end time.Time) ([]models.OHLCV, error) {
	res, err := provider.Fetch(ctx, p, provider.ModelEquityHistorical, provider.QueryParams{
		provider.ParamSymbol:     symbol,
		provider.ParamStartDate:  utils.FormatDate(start),
		provider.ParamEndDate:    utils.FormatDate(end),
		provider.ParamInterval:   "1d",
		provider.ParamAutoAdjust: strconv.FormatBool(p.autoAdjust),
	})
	if err != nil {
		return nil, err
	}
	return res.Data.([]models.OHLCV), nil
}

// Statements returns the quarterly statements of one kind, newest first.
func (p *Provider) Statements(ctx context.Context, symbol string, kind models.StatementKind) (*models.Statements, error) {
	model, ok := statementModels[kind]
	if !ok {
		return nil, fmt.Errorf("unknown statement kind %q", kind)
	}
	res, err := provider.Fetch(ctx, p, model, provider.QueryParams{
		provider.ParamSymbol: symbol,
		provider.ParamPeriod: "quarterly",
	})
	if err != nil {
		return nil, err
	}
	return res.Data.(*models.Statements), nil
}

// Profile returns the company profile.
func (p *Provider) Profile(ctx context.Context, symbol string) (*models.Profile, error) {
	res, err := provider.Fetch(ctx, p, provider.ModelEquityInfo, provider.QueryParams{provider.ParamSymbol: symbol})
	if err != nil {
		return nil, err
	}
	return res.Data.(*models.Profile), nil
}

// --- Shared helpers ---

// api is the HTTP side shared by all fetchers of one provider.
type api struct {
	baseURL string
	client  *infra.Client
	session *session
}

func (a *api) getJSON(ctx context.Context, path string, query map[string]string, dest any) error {
	return a.client.GetJSON(ctx, a.baseURL+path, query, map[string]string{"Accept": "application/json"}, dest)
}

// newResult creates a FetchResult with the current timestamp.
func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// dateRange parses start_date/end_date from params. Missing values default
// to one year ending today.
func dateRange(params provider.QueryParams) (time.Time, time.Time, error) {
	end := utils.Day(time.Now()).AddDate(0, 0, 1)
	start := end.AddDate(-1, 0, 0)

	if s := params[provider.ParamStartDate]; s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if s := params[provider.ParamEndDate]; s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	return start, end, nil
}
