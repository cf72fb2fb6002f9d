package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/provider"
	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// statementModels maps a statement kind to its provider model.
var statementModels = map[models.StatementKind]provider.ModelType{
	models.IncomeStatementKind: provider.ModelIncomeStatement,
	models.BalanceSheetKind:    provider.ModelBalanceSheet,
	models.CashFlowKind:        provider.ModelCashFlowStatement,
}

// statementKeys lists the fundamentals-timeseries fields requested per
// statement, without the "quarterly"/"annual" prefix.
var statementKeys = map[models.StatementKind][]string{
	models.IncomeStatementKind: {
		"TotalRevenue", "CostOfRevenue", "GrossProfit", "OperatingExpense",
		"ResearchAndDevelopment", "SellingGeneralAndAdministration",
		"OperatingIncome", "InterestExpense", "PretaxIncome", "TaxProvision",
		"TaxRateForCalcs", "NetIncome", "NetIncomeCommonStockholders",
		"EBIT", "EBITDA", "BasicEPS", "DilutedEPS",
		"BasicAverageShares", "DilutedAverageShares",
	},
	models.BalanceSheetKind: {
		"TotalAssets", "CurrentAssets", "CashAndCashEquivalents",
		"AccountsReceivable", "Inventory", "NetPPE", "GrossPPE",
		"AccumulatedDepreciation", "TotalLiabilitiesNetMinorityInterest",
		"CurrentLiabilities", "CurrentDebt", "LongTermDebt", "TotalDebt",
		"NetDebt", "StockholdersEquity", "CommonStockEquity",
		"RetainedEarnings", "TangibleBookValue", "WorkingCapital",
		"InvestedCapital", "OrdinarySharesNumber", "ShareIssued",
	},
	models.CashFlowKind: {
		"OperatingCashFlow", "InvestingCashFlow", "FinancingCashFlow",
		"CapitalExpenditure", "FreeCashFlow", "DepreciationAndAmortization",
		"StockBasedCompensation", "ChangeInWorkingCapital",
		"RepurchaseOfCapitalStock", "CashDividendsPaid", "EndCashPosition",
	},
}

// fundamentalsStart is the earliest period requested; Yahoo serves a few
// years of quarters at most.
var fundamentalsStart = time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)

// --- Statement fetcher (income / balance / cash flow) ---

type statementFetcher struct {
	provider.BaseFetcher
	api  *api
	kind models.StatementKind
}

func newStatementFetcher(a *api, limiter *infra.RateLimiter, kind models.StatementKind) *statementFetcher {
	return &statementFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			statementModels[kind],
			fmt.Sprintf("Quarterly or annual %s statement from Yahoo Finance", kind),
			[]string{provider.ParamSymbol},
			[]string{provider.ParamPeriod},
			limiter,
		),
		api:  a,
		kind: kind,
	}
}

func (f *statementFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	yfTicker := utils.ToYahooSymbol(params[provider.ParamSymbol])

	prefix := "quarterly"
	if params[provider.ParamPeriod] == "annual" {
		prefix = "annual"
	}
	keys := statementKeys[f.kind]
	types := make([]string, len(keys))
	for i, k := range keys {
		types[i] = prefix + k
	}

	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	var resp yfTimeseriesResponse
	err := f.api.getJSON(ctx, "/ws/fundamentals-timeseries/v1/finance/timeseries/"+yfTicker, map[string]string{
		"symbol":  yfTicker,
		"type":    strings.Join(types, ","),
		"period1": fmt.Sprint(fundamentalsStart.Unix()),
		"period2": fmt.Sprint(time.Now().Unix()),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yfinance %s %s: %w", f.kind, yfTicker, err)
	}
	if resp.Timeseries.Error != nil {
		return nil, fmt.Errorf("yfinance API error: %s", resp.Timeseries.Error.Description)
	}

	stmts, err := parseTimeseries(resp.Timeseries.Result, prefix)
	if err != nil {
		return nil, fmt.Errorf("yfinance %s %s: %w", f.kind, yfTicker, err)
	}
	stmts.Symbol = yfTicker
	stmts.Kind = f.kind
	return newResult(stmts), nil
}

// parseTimeseries pivots per-field time series into per-period statements.
func parseTimeseries(results []map[string]json.RawMessage, prefix string) (*models.Statements, error) {
	byDate := make(map[time.Time]map[string]float64)
	labels := make(map[string]bool)

	for _, r := range results {
		var meta yfTimeseriesMeta
		if raw, ok := r["meta"]; ok {
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, fmt.Errorf("parse meta: %w", err)
			}
		}
		if len(meta.Type) == 0 {
			continue
		}
		typ := meta.Type[0]
		raw, ok := r[typ]
		if !ok {
			continue // field requested but not reported
		}

		var points []*yfTimeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fmt.Errorf("parse %s: %w", typ, err)
		}

		label := camelToTitle(strings.TrimPrefix(typ, prefix))
		labels[label] = true
		for _, pt := range points {
			if pt == nil {
				continue
			}
			d, err := utils.ParseDate(pt.AsOfDate)
			if err != nil {
				continue
			}
			if byDate[d] == nil {
				byDate[d] = make(map[string]float64)
			}
			byDate[d][label] = finVal(pt.ReportedValue)
		}
	}

	// A label reported for any period is a row of the statement; periods
	// where it is null carry NaN.
	for _, vals := range byDate {
		for label := range labels {
			if _, ok := vals[label]; !ok {
				vals[label] = math.NaN()
			}
		}
	}

	stmts := &models.Statements{Periods: make([]models.Statement, 0, len(byDate))}
	for d, vals := range byDate {
		stmts.Periods = append(stmts.Periods, models.Statement{Period: d, Values: vals})
	}
	stmts.SortNewestFirst()
	return stmts, nil
}

var (
	lowerUpper   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymUpper = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
)

// camelToTitle converts a Yahoo field key to its display label:
// "TaxRateForCalcs" → "Tax Rate For Calcs", "NetPPE" → "Net PPE",
// "EBITDA" stays as is.
func camelToTitle(s string) string {
	s = lowerUpper.ReplaceAllString(s, "$1 $2")
	s = acronymUpper.ReplaceAllString(s, "$1 $2")
	return s
}
