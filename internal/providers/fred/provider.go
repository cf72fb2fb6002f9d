// Package fred implements the FRED (Federal Reserve Economic Data) provider.
//
// Requires a free API key from https://fred.stlouisfed.org/docs/api/api_key.html
// Rate limit: 120 requests/minute.
// Docs: https://fred.stlouisfed.org/docs/api/fred/
package fred

import (
	"context"
	"fmt"
	"time"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

const (
	providerName = "fred"
	// DefaultBaseURL is the FRED API root.
	DefaultBaseURL = "https://api.stlouisfed.org/fred"
	credAPIKey     = "api_key"

	// paramAPIKey carries the injected key from the wrapper to the fetcher.
	paramAPIKey = "_fred_api_key"
)

// DefaultRequestInterval keeps requests under FRED's 120/minute limit.
const DefaultRequestInterval = 500 * time.Millisecond

// Provider implements provider.Provider for FRED.
type Provider struct {
	provider.BaseProvider
	apiKey   string
	api      *api
	interval time.Duration
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API root, e.g. for an httptest server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.api.baseURL = u }
}

// WithClient sets the HTTP client.
func WithClient(c *infra.Client) Option {
	return func(p *Provider) { p.api.client = c }
}

// WithRequestInterval sets the minimum spacing between requests.
// Zero disables pacing.
func WithRequestInterval(d time.Duration) Option {
	return func(p *Provider) { p.interval = d }
}

// New creates a new FRED provider and registers its fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Federal Reserve Economic Data - economic time series",
			"https://fred.stlouisfed.org",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "FRED API key from fred.stlouisfed.org",
					Required:    true,
					EnvVar:      "FRED_API_KEY",
				},
			},
		),
		api: &api{
			baseURL: DefaultBaseURL,
			client:  infra.NewClient(60*time.Second, ""),
		},
		interval: DefaultRequestInterval,
	}
	for _, opt := range opts {
		opt(p)
	}

	limiter := infra.NewInterval(p.interval)
	p.RegisterFetcher(newSeriesFetcher(p.api, limiter))
	p.RegisterFetcher(newSeriesInfoFetcher(p.api, limiter))
	return p
}

// Init stores the API key.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.apiKey = credentials[credAPIKey]
	return nil
}

// Ping checks connectivity and the API key against a known series.
func (p *Provider) Ping(ctx context.Context) error {
	var resp fredSeriesResponse
	if err := p.api.getJSON(ctx, "series", p.apiKey, map[string]string{"series_id": "GDP"}, &resp); err != nil {
		return fmt.Errorf("fred ping: %w", err)
	}
	return nil
}

// APIKey returns the stored API key.
func (p *Provider) APIKey() string {
	return p.apiKey
}

// Fetcher overrides BaseProvider.Fetcher to return a wrapper that
// auto-injects the FRED API key into query params before delegating.
func (p *Provider) Fetcher(model provider.ModelType) provider.Fetcher {
	inner := p.BaseProvider.Fetcher(model)
	if inner == nil {
		return nil
	}
	return &apiKeyInjector{inner: inner, apiKey: &p.apiKey}
}

// Observations returns the observations of one series, sorted by date.
// Zero start or end leaves that side of the range open.
func (p *Provider) Observations(ctx context.Context, seriesID string, start, end time.Time) ([]models.Observation, error) {
	params := provider.QueryParams{provider.ParamSymbol: seriesID}
	if !start.IsZero() {
		params[provider.ParamStartDate] = utils.FormatDate(start)
	}
	if !end.IsZero() {
		params[provider.ParamEndDate] = utils.FormatDate(end)
	}
	res, err := provider.Fetch(ctx, p, provider.ModelFredSeries, params)
	if err != nil {
		return nil, err
	}
	return res.Data.([]models.Observation), nil
}

// SeriesInfo returns the metadata of one series.
func (p *Provider) SeriesInfo(ctx context.Context, seriesID string) (*models.SeriesInfo, error) {
	res, err := provider.Fetch(ctx, p, provider.ModelFredSeriesInfo, provider.QueryParams{provider.ParamSymbol: seriesID})
	if err != nil {
		return nil, err
	}
	return res.Data.(*models.SeriesInfo), nil
}

// apiKeyInjector wraps a Fetcher and injects the FRED API key.
type apiKeyInjector struct {
	inner  provider.Fetcher
	apiKey *string
}

func (w *apiKeyInjector) ModelType() provider.ModelType { return w.inner.ModelType() }
func (w *apiKeyInjector) Description() string           { return w.inner.Description() }
func (w *apiKeyInjector) RequiredParams() []string      { return w.inner.RequiredParams() }
func (w *apiKeyInjector) OptionalParams() []string      { return w.inner.OptionalParams() }

func (w *apiKeyInjector) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	enriched := make(provider.QueryParams, len(params)+1)
	for k, v := range params {
		enriched[k] = v
	}
	enriched[paramAPIKey] = *w.apiKey
	return w.inner.Fetch(ctx, enriched)
}

// --- Shared helpers ---

// api is the HTTP side shared by all fetchers of one provider.
type api struct {
	baseURL string
	client  *infra.Client
}

// getJSON performs a GET against a FRED endpoint with api_key and
// file_type=json added to query, and decodes the JSON response.
func (a *api) getJSON(ctx context.Context, endpoint, apiKey string, query map[string]string, dest any) error {
	q := make(map[string]string, len(query)+2)
	for k, v := range query {
		q[k] = v
	}
	q["api_key"] = apiKey
	q["file_type"] = "json"
	return a.client.GetJSON(ctx, a.baseURL+"/"+endpoint, q, map[string]string{"Accept": "application/json"}, dest)
}

func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}
