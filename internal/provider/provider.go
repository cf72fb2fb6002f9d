// Package provider defines the data-source abstraction used by the FRED
// and Yahoo Finance clients: a Provider owns credentials and a set of
// Fetchers, one per standard model type.
package provider

import (
	"context"
	"fmt"
	"time"
)

// ProviderCredential describes a required credential for a provider.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "FRED API key from fredaccount.stlouisfed.org"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // environment variable name, e.g., "FRED_API_KEY"
}

// ProviderInfo holds metadata about a provider.
type ProviderInfo struct {
	Name        string               `json:"name"`        // e.g., "fred", "yfinance"
	Description string               `json:"description"` // human-readable description
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"` // supported standard models
}

// Provider is the interface that all data providers implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init stores credentials. Returns an error if required credentials
	// are missing.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for the given model type, or nil if unsupported.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies the provider's connectivity and credentials.
	Ping(ctx context.Context) error
}

// QueryParams is the generic query parameter map passed to fetchers.
// Common keys include:
//   - "symbol"     : ticker symbol or FRED series ID (e.g., "AAPL", "DGS10")
//   - "start_date" : start date (YYYY-MM-DD)
//   - "end_date"   : end date (YYYY-MM-DD)
//   - "interval"   : bar size (e.g., "1d")
//   - "period"     : reporting period ("quarterly", "annual")
//
// Each fetcher defines which keys it requires/supports.
type QueryParams map[string]string

// QueryParamKey constants for commonly used query parameters.
const (
	ParamSymbol     = "symbol"
	ParamStartDate  = "start_date"
	ParamEndDate    = "end_date"
	ParamInterval   = "interval"
	ParamPeriod     = "period"
	ParamAutoAdjust = "auto_adjust"
)

// FetchResult wraps a fetcher result with metadata.
type FetchResult struct {
	Provider  string    `json:"provider"`   // which provider returned this data
	Model     ModelType `json:"model"`      // the standard model type
	Data      any       `json:"data"`       // the fetched data (typed per model)
	FetchedAt time.Time `json:"fetched_at"` // when the data was fetched
}

// Fetcher is the interface for fetching a specific data type.
// Each Fetcher handles a single standard model type.
type Fetcher interface {
	// ModelType returns the standard model type this fetcher handles.
	ModelType() ModelType

	// Description returns a human-readable description of what this fetcher does.
	Description() string

	// RequiredParams returns the parameter keys this fetcher requires.
	RequiredParams() []string

	// OptionalParams returns the parameter keys this fetcher optionally accepts.
	OptionalParams() []string

	// Fetch retrieves data for the given query parameters.
	// The returned data type depends on the standard model:
	//   - FredSeries       → []models.Observation
	//   - FredSeriesInfo   → *models.SeriesInfo
	//   - EquityHistorical → []models.OHLCV
	//   - IncomeStatement, BalanceSheet, CashFlowStatement → *models.Statements
	//   - EquityInfo       → *models.Profile
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// Fetch runs the provider's fetcher for model after validating params.
// There is no fallback: an unsupported model is an error.
func Fetch(ctx context.Context, p Provider, model ModelType, params QueryParams) (*FetchResult, error) {
	name := p.Info().Name
	f := p.Fetcher(model)
	if f == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	if err := ValidateParams(params, f.RequiredParams()); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", name, model, err)
	}
	result, err := f.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	return result, nil
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
