package fred

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
)

// newTestProvider returns an initialised provider pointed at srv with no pacing.
func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p := New(
		WithBaseURL(srv.URL+"/fred"),
		WithClient(infra.NewClient(5*time.Second, "")),
		WithRequestInterval(0),
	)
	if err := p.Init(map[string]string{"api_key": "test_key"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return p
}

func TestProviderInfo(t *testing.T) {
	p := New()
	info := p.Info()
	if info.Name != "fred" {
		t.Errorf("expected name fred, got %s", info.Name)
	}
	if info.Website == "" {
		t.Error("expected non-empty website")
	}
	if len(info.Credentials) != 1 {
		t.Fatalf("expected 1 credential, got %d", len(info.Credentials))
	}
	if info.Credentials[0].Name != "api_key" {
		t.Errorf("expected credential name api_key, got %s", info.Credentials[0].Name)
	}
	if !info.Credentials[0].Required {
		t.Error("api_key should be required")
	}
}

func TestProviderSupportedModels(t *testing.T) {
	p := New()
	models := p.SupportedModels()
	if len(models) != 2 {
		t.Fatalf("expected 2 supported models, got %v", models)
	}
	if p.Fetcher(provider.ModelFredSeries) == nil || p.Fetcher(provider.ModelFredSeriesInfo) == nil {
		t.Error("expected FredSeries and FredSeriesInfo fetchers")
	}
}

func TestProviderInitSuccess(t *testing.T) {
	p := New()
	err := p.Init(map[string]string{"api_key": "test_key_123"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.APIKey() != "test_key_123" {
		t.Errorf("expected api key test_key_123, got %s", p.APIKey())
	}
}

func TestProviderInitMissingKey(t *testing.T) {
	p := New()
	err := p.Init(map[string]string{})
	var credErr *provider.ErrInvalidCredentials
	if !errors.As(err, &credErr) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestFetcherReturned(t *testing.T) {
	p := New()
	_ = p.Init(map[string]string{"api_key": "test"})

	f := p.Fetcher(provider.ModelFredSeries)
	if f == nil {
		t.Fatal("expected non-nil fetcher for FredSeries")
	}
	wrapper, ok := f.(*apiKeyInjector)
	if !ok {
		t.Fatalf("expected apiKeyInjector wrapper, got %T", f)
	}
	if *wrapper.apiKey != "test" {
		t.Errorf("expected api key test, got %s", *wrapper.apiKey)
	}
	if got := f.RequiredParams(); len(got) != 1 || got[0] != provider.ParamSymbol {
		t.Errorf("RequiredParams: got %v", got)
	}

	if p.Fetcher(provider.ModelType("Nonexistent")) != nil {
		t.Error("expected nil fetcher for unsupported model")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		nan      bool
	}{
		{"3.14", 3.14, false},
		{"100", 100, false},
		{"-1.5", -1.5, false},
		{" 4.25 ", 4.25, false},
		{".", 0, true},
		{"", 0, true},
		{"n/a", 0, true},
	}
	for _, tt := range tests {
		got := parseValue(tt.input)
		if tt.nan {
			if !math.IsNaN(got) {
				t.Errorf("parseValue(%q) = %v, want NaN", tt.input, got)
			}
			continue
		}
		if got != tt.expected {
			t.Errorf("parseValue(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseFredDate(t *testing.T) {
	tests := []struct {
		input string
		year  int
		month int
		day   int
	}{
		{"2024-01-15", 2024, 1, 15},
		{"2023-12-31", 2023, 12, 31},
		{"2023-12-31T00:00:00", 2023, 12, 31},
	}
	for _, tt := range tests {
		got := parseFredDate(tt.input)
		if got.Year() != tt.year || int(got.Month()) != tt.month || got.Day() != tt.day {
			t.Errorf("parseFredDate(%q) = %v, want %d-%02d-%02d", tt.input, got, tt.year, tt.month, tt.day)
		}
	}
	if !parseFredDate("bad").IsZero() {
		t.Error("expected zero time for unparseable date")
	}
}

func TestObservationsWithMockServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fred/series/observations" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("series_id") != "DGS10" {
			t.Errorf("series_id: got %q", q.Get("series_id"))
		}
		if q.Get("api_key") != "test_key" {
			t.Errorf("api_key: got %q", q.Get("api_key"))
		}
		if q.Get("file_type") != "json" {
			t.Errorf("file_type: got %q", q.Get("file_type"))
		}
		if q.Get("observation_start") != "2024-01-01" {
			t.Errorf("observation_start: got %q", q.Get("observation_start"))
		}
		if q.Has("observation_end") {
			t.Error("observation_end should be omitted for a zero end")
		}

		w.Header().Set("Content-Type", "application/json")
		// Out of order on purpose.
		json.NewEncoder(w).Encode(map[string]any{
			"observations": []map[string]string{
				{"date": "2024-01-03", "value": "."},
				{"date": "2024-01-01", "value": "5.33"},
				{"date": "2024-01-02", "value": "5.34"},
			},
		})
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	obs, err := p.Observations(context.Background(), "DGS10", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs))
	}
	if obs[0].Date.Day() != 1 || obs[0].Value != 5.33 {
		t.Errorf("first observation: got %+v", obs[0])
	}
	if !math.IsNaN(obs[2].Value) {
		t.Errorf("missing marker should be NaN, got %v", obs[2].Value)
	}
}

func TestObservationsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code":400,"error_message":"Bad Request.  The series does not exist."}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	_, err := p.Observations(context.Background(), "NOPE", time.Time{}, time.Time{})
	var httpErr *infra.ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *infra.ErrHTTP, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode: got %d", httpErr.StatusCode)
	}
}

func TestSeriesInfoWithMockServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fred/series" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"seriess":[{"id":"DGS10","title":"Market Yield on U.S. Treasury Securities at 10-Year Constant Maturity","frequency":"Daily","frequency_short":"D","units":"Percent","observation_start":"1962-01-02","observation_end":"2025-10-17"}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	info, err := p.SeriesInfo(context.Background(), "DGS10")
	if err != nil {
		t.Fatalf("SeriesInfo: %v", err)
	}
	if info.FrequencyShort != "D" {
		t.Errorf("FrequencyShort: got %q, want %q", info.FrequencyShort, "D")
	}
	if info.ObservationStart.Year() != 1962 {
		t.Errorf("ObservationStart: got %v", info.ObservationStart)
	}
}

func TestSeriesInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"seriess":[]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	if _, err := p.SeriesInfo(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for empty seriess")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") != "GDP" {
			t.Errorf("ping should query GDP, got %q", r.URL.Query().Get("series_id"))
		}
		w.Write([]byte(`{"seriess":[{"id":"GDP"}]}`))
	}))
	defer srv.Close()

	if err := newTestProvider(t, srv).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestObservationsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations":[]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Observations(ctx, "DGS10", time.Time{}, time.Time{}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
