package yfinance

import "encoding/json"

// --- Yahoo Finance API response types ---

// yfChartResponse wraps the v8 chart API response.
type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	InstrumentType     string  `json:"instrumentType"`
	ExchangeName       string  `json:"exchangeName"`
	ExchangeTimezone   string  `json:"exchangeTimezoneName"`
	Timezone           string  `json:"timezone"`
	GMTOffset          int     `json:"gmtoffset"` // seconds east of UTC
}

type yfIndicators struct {
	Quote    []yfOHLCV    `json:"quote"`
	AdjClose []yfAdjClose `json:"adjclose"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yfAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

// yfQuoteSummaryResponse wraps the v10 quoteSummary API response.
type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	AssetProfile         *yfAssetProfile         `json:"assetProfile"`
	DefaultKeyStatistics *yfDefaultKeyStatistics `json:"defaultKeyStatistics"`
	Price                *yfPrice                `json:"price"`
}

// yfFinVal is Yahoo's {raw, fmt} number wrapper. Raw is nil when Yahoo
// sends {} or null for the field.
type yfFinVal struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type yfAssetProfile struct {
	Industry            string `json:"industry"`
	Sector              string `json:"sector"`
	FullTimeEmployees   int64  `json:"fullTimeEmployees"`
	LongBusinessSummary string `json:"longBusinessSummary"`
	Country             string `json:"country"`
	Website             string `json:"website"`
}

type yfDefaultKeyStatistics struct {
	SharesOutstanding yfFinVal `json:"sharesOutstanding"`
	FloatShares       yfFinVal `json:"floatShares"`
	BookValue         yfFinVal `json:"bookValue"`
	PriceToBook       yfFinVal `json:"priceToBook"`
	Beta              yfFinVal `json:"beta"`
}

type yfPrice struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Currency  string `json:"currency"`
}

// yfTimeseriesResponse wraps the fundamentals-timeseries API response.
// Each result carries its values under a key named after its type, e.g.
// "quarterlyTotalDebt", so results are decoded in two steps.
type yfTimeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yfError                     `json:"error"`
	} `json:"timeseries"`
}

type yfTimeseriesMeta struct {
	Symbol []string `json:"symbol"`
	Type   []string `json:"type"`
}

type yfTimeseriesPoint struct {
	AsOfDate      string   `json:"asOfDate"`
	PeriodType    string   `json:"periodType"`
	CurrencyCode  string   `json:"currencyCode"`
	ReportedValue yfFinVal `json:"reportedValue"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
