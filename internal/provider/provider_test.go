package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/econlab/regdata/internal/infra"
)

// mockFetcher implements the Fetcher interface for testing.
type mockFetcher struct {
	BaseFetcher
	fetchFn func(ctx context.Context, params QueryParams) (*FetchResult, error)
}

func newMockFetcher(model ModelType, required []string) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: NewBaseFetcher(model, "mock fetcher for "+string(model), required, nil, nil),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, params)
	}
	return &FetchResult{Data: "mock-data"}, nil
}

// mockProvider implements the Provider interface for testing.
type mockProvider struct {
	BaseProvider
}

func newMockProvider(name string, models ...ModelType) *mockProvider {
	mp := &mockProvider{
		BaseProvider: NewBaseProvider(name, "Mock "+name, "https://example.com", nil),
	}
	for _, m := range models {
		mp.RegisterFetcher(newMockFetcher(m, []string{ParamSymbol}))
	}
	return mp
}

// --- Fetch Tests ---

func TestFetch(t *testing.T) {
	mp := newMockProvider("test", ModelFredSeries)

	result, err := Fetch(context.Background(), mp, ModelFredSeries, QueryParams{ParamSymbol: "DGS10"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Provider != "test" {
		t.Errorf("expected provider 'test', got %s", result.Provider)
	}
	if result.Model != ModelFredSeries {
		t.Errorf("expected model FredSeries, got %s", result.Model)
	}
	if result.Data != "mock-data" {
		t.Errorf("unexpected data: %v", result.Data)
	}
	if result.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}
}

func TestFetchMissingParam(t *testing.T) {
	mp := newMockProvider("test", ModelEquityHistorical)

	_, err := Fetch(context.Background(), mp, ModelEquityHistorical, QueryParams{})
	if err == nil {
		t.Fatal("expected error for missing param")
	}
	var missing *ErrMissingParam
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingParam, got %T: %v", err, err)
	}
	if missing.Param != ParamSymbol {
		t.Errorf("Param: got %q, want %q", missing.Param, ParamSymbol)
	}
}

func TestFetchUnsupportedModel(t *testing.T) {
	mp := newMockProvider("test", ModelEquityHistorical)

	_, err := Fetch(context.Background(), mp, ModelFredSeries, QueryParams{ParamSymbol: "DGS10"})
	var unsupported *ErrModelNotSupported
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrModelNotSupported, got %T: %v", err, err)
	}
}

func TestFetchPropagatesError(t *testing.T) {
	mp := newMockProvider("test", ModelEquityInfo)
	f := newMockFetcher(ModelEquityInfo, []string{ParamSymbol})
	boom := errors.New("boom")
	f.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return nil, boom
	}
	mp.RegisterFetcher(f)

	_, err := Fetch(context.Background(), mp, ModelEquityInfo, QueryParams{ParamSymbol: "AAPL"})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

// --- Base Provider Tests ---

func TestBaseProviderInit(t *testing.T) {
	creds := []ProviderCredential{
		{Name: "api_key", Required: true, EnvVar: "TEST_KEY"},
	}
	bp := NewBaseProvider("test", "desc", "https://test.com", creds)

	if err := bp.Init(map[string]string{}); err == nil {
		t.Error("expected error for missing required credential")
	}

	if err := bp.Init(map[string]string{"api_key": "secret123"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if bp.Credential("api_key") != "secret123" {
		t.Error("credential not stored")
	}
}

func TestBaseProviderRegisterFetcher(t *testing.T) {
	bp := NewBaseProvider("test", "desc", "https://test.com", nil)
	bp.RegisterFetcher(newMockFetcher(ModelIncomeStatement, nil))
	bp.RegisterFetcher(newMockFetcher(ModelBalanceSheet, nil))

	if bp.Fetcher(ModelBalanceSheet) == nil {
		t.Error("fetcher not registered")
	}
	if bp.Fetcher(ModelCashFlowStatement) != nil {
		t.Error("fetcher should be nil for unregistered model")
	}
	models := bp.SupportedModels()
	if len(models) != 2 {
		t.Fatalf("expected 2 supported models, got %d", len(models))
	}
	if models[0] != ModelBalanceSheet {
		t.Errorf("models should be sorted, got %v", models)
	}
	if len(bp.Info().Models) != 2 {
		t.Errorf("Info().Models not updated: %v", bp.Info().Models)
	}
}

// --- BaseFetcher Tests ---

func TestBaseFetcherRateLimitShared(t *testing.T) {
	limiter := infra.NewInterval(40 * time.Millisecond)
	a := NewBaseFetcher(ModelIncomeStatement, "a", nil, nil, limiter)
	b := NewBaseFetcher(ModelBalanceSheet, "b", nil, nil, limiter)

	ctx := context.Background()
	start := time.Now()
	if err := a.RateLimit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.RateLimit(ctx); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("fetchers sharing a limiter should be paced together")
	}
}

func TestBaseFetcherNilLimiter(t *testing.T) {
	f := NewBaseFetcher(ModelEquityInfo, "x", nil, nil, nil)
	if err := f.RateLimit(context.Background()); err != nil {
		t.Errorf("nil limiter should not block: %v", err)
	}
}

// --- ValidateParams Tests ---

func TestValidateParams(t *testing.T) {
	err := ValidateParams(QueryParams{ParamSymbol: "AAPL"}, []string{ParamSymbol})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err = ValidateParams(QueryParams{}, []string{ParamSymbol})
	if err == nil {
		t.Error("expected error for missing param")
	}

	err = ValidateParams(QueryParams{ParamSymbol: ""}, []string{ParamSymbol})
	if err == nil {
		t.Error("expected error for empty param")
	}
}

// --- Model Tests ---

func TestAllModels(t *testing.T) {
	all := AllModels()
	if len(all) != 7 {
		t.Errorf("expected 7 models, got %d", len(all))
	}

	seen := make(map[ModelType]bool)
	for _, m := range all {
		if seen[m] {
			t.Errorf("duplicate model type: %s", m)
		}
		seen[m] = true
	}
}

func TestModelCategory(t *testing.T) {
	tests := []struct {
		model    ModelType
		category string
	}{
		{ModelFredSeries, "Economy"},
		{ModelFredSeriesInfo, "Economy"},
		{ModelEquityHistorical, "Equity / Price"},
		{ModelBalanceSheet, "Equity / Fundamentals"},
		{ModelType("Unknown"), "Other"},
	}

	for _, tt := range tests {
		cat := ModelCategory(tt.model)
		if cat != tt.category {
			t.Errorf("ModelCategory(%s) = %q, want %q", tt.model, cat, tt.category)
		}
	}
}

// --- Status Tests ---

type pingProvider struct {
	*mockProvider
	err error
}

func (p *pingProvider) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	return p.err
}

func TestCheck(t *testing.T) {
	up := &pingProvider{mockProvider: newMockProvider("fred", ModelFredSeriesInfo, ModelFredSeries)}
	down := &pingProvider{
		mockProvider: newMockProvider("yfinance", ModelBalanceSheet, ModelEquityHistorical, ModelIncomeStatement),
		err:          errors.New("HTTP 429"),
	}

	got := Check(context.Background(), time.Second, up, down)
	if len(got) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(got))
	}

	if got[0].Name != "fred" || !got[0].OK() {
		t.Errorf("fred: got %+v", got[0])
	}
	econ := got[0].Categories["Economy"]
	if len(econ) != 2 || econ[0] != ModelFredSeries || econ[1] != ModelFredSeriesInfo {
		t.Errorf("Economy models in AllModels order: got %v", econ)
	}

	if got[1].OK() || got[1].Err.Error() != "HTTP 429" {
		t.Errorf("yfinance should report its ping error, got %v", got[1].Err)
	}
	fund := got[1].Categories["Equity / Fundamentals"]
	if len(fund) != 2 || fund[0] != ModelIncomeStatement || fund[1] != ModelBalanceSheet {
		t.Errorf("fundamentals: got %v", fund)
	}
	if price := got[1].Categories["Equity / Price"]; len(price) != 1 {
		t.Errorf("price: got %v", price)
	}
}
