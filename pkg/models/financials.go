package models

import (
	"sort"
	"time"
)

// StatementKind names one of the three quarterly financial statements.
type StatementKind string

const (
	IncomeStatementKind StatementKind = "income"
	BalanceSheetKind    StatementKind = "balance"
	CashFlowKind        StatementKind = "cashflow"
)

// Statement is one reporting period of a statement. Values are keyed by
// display label, e.g. "Total Debt" or "Net PPE".
type Statement struct {
	Period time.Time          `json:"period"`
	Values map[string]float64 `json:"values"`
}

// Statements is a set of quarterly statements, newest period first.
type Statements struct {
	Symbol  string        `json:"symbol"`
	Kind    StatementKind `json:"kind"`
	Periods []Statement   `json:"periods"`
}

// At returns the statement whose period falls on the same calendar day as
// period.
func (s *Statements) At(period time.Time) (Statement, bool) {
	if s == nil {
		return Statement{}, false
	}
	y, m, d := period.Date()
	for _, st := range s.Periods {
		sy, sm, sd := st.Period.Date()
		if sy == y && sm == m && sd == d {
			return st, true
		}
	}
	return Statement{}, false
}

// SortNewestFirst orders periods by descending date.
func (s *Statements) SortNewestFirst() {
	sort.Slice(s.Periods, func(i, j int) bool {
		return s.Periods[i].Period.After(s.Periods[j].Period)
	})
}

// FirmVariables is one firm-quarter row of the regression dataset.
// Float fields are NaN when the inputs needed to compute them are missing.
type FirmVariables struct {
	Ticker             string    `json:"ticker"`
	Period             time.Time `json:"period"`
	Leverage           float64   `json:"leverage"`
	ROA                float64   `json:"roa"`
	Tangibility        float64   `json:"tangibility"`
	LogTotalAssets     float64   `json:"log_total_assets"`
	MarketToBook       float64   `json:"market_to_book"`
	LogMarketToBook    float64   `json:"log_market_to_book"`
	EffectiveTaxRate   float64   `json:"effective_tax_rate"`
	RealizedVolatility float64   `json:"realized_volatility"`
	Turnover           float64   `json:"turnover"`
	Sector             string    `json:"sector"`
	Industry           string    `json:"industry"`
}
