package fred

import (
	"context"
	"fmt"
	"sort"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
	"github.com/econlab/regdata/pkg/models"
)

// ---- FredSeries fetcher ----

type seriesFetcher struct {
	provider.BaseFetcher
	api *api
}

func newSeriesFetcher(a *api, limiter *infra.RateLimiter) *seriesFetcher {
	return &seriesFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelFredSeries,
			"Get FRED time series observations by series ID",
			[]string{provider.ParamSymbol}, // series_id passed as symbol
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			limiter,
		),
		api: a,
	}
}

func (f *seriesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	seriesID := params[provider.ParamSymbol]
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	query := map[string]string{"series_id": seriesID}
	if sd := params[provider.ParamStartDate]; sd != "" {
		query["observation_start"] = sd
	}
	if ed := params[provider.ParamEndDate]; ed != "" {
		query["observation_end"] = ed
	}

	var resp fredObservationsResponse
	if err := f.api.getJSON(ctx, "series/observations", params[paramAPIKey], query, &resp); err != nil {
		return nil, fmt.Errorf("fred series %s: %w", seriesID, err)
	}

	data := make([]models.Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		d := parseFredDate(o.Date)
		if d.IsZero() {
			continue
		}
		data = append(data, models.Observation{Date: d, Value: parseValue(o.Value)})
	}
	sort.SliceStable(data, func(i, j int) bool { return data[i].Date.Before(data[j].Date) })

	return newResult(data), nil
}

// ---- FredSeriesInfo fetcher ----

type seriesInfoFetcher struct {
	provider.BaseFetcher
	api *api
}

func newSeriesInfoFetcher(a *api, limiter *infra.RateLimiter) *seriesInfoFetcher {
	return &seriesInfoFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelFredSeriesInfo,
			"Get FRED series metadata (title, frequency, units)",
			[]string{provider.ParamSymbol},
			nil,
			limiter,
		),
		api: a,
	}
}

func (f *seriesInfoFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	seriesID := params[provider.ParamSymbol]
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	var resp fredSeriesResponse
	if err := f.api.getJSON(ctx, "series", params[paramAPIKey], map[string]string{"series_id": seriesID}, &resp); err != nil {
		return nil, fmt.Errorf("fred series info %s: %w", seriesID, err)
	}
	if len(resp.Seriess) == 0 {
		return nil, fmt.Errorf("fred series info %s: series not found", seriesID)
	}

	s := resp.Seriess[0]
	return newResult(&models.SeriesInfo{
		ID:               s.ID,
		Title:            s.Title,
		Frequency:        s.Frequency,
		FrequencyShort:   s.FrequencyShort,
		Units:            s.Units,
		ObservationStart: parseFredDate(s.ObservationStart),
		ObservationEnd:   parseFredDate(s.ObservationEnd),
	}), nil
}
