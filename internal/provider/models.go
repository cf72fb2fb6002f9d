package provider

// ModelType names a standard data model. Each ModelType maps to a
// specific data structure in pkg/models/.
type ModelType string

// --- Economy ---
const (
	ModelFredSeries     ModelType = "FredSeries"
	ModelFredSeriesInfo ModelType = "FredSeriesInfo"
)

// --- Equity ---
const (
	ModelEquityHistorical  ModelType = "EquityHistorical"
	ModelEquityInfo        ModelType = "EquityInfo"
	ModelIncomeStatement   ModelType = "IncomeStatement"
	ModelBalanceSheet      ModelType = "BalanceSheet"
	ModelCashFlowStatement ModelType = "CashFlowStatement"
)

// AllModels returns every model type known to the package.
func AllModels() []ModelType {
	return []ModelType{
		ModelFredSeries, ModelFredSeriesInfo,
		ModelEquityHistorical, ModelEquityInfo,
		ModelIncomeStatement, ModelBalanceSheet, ModelCashFlowStatement,
	}
}

// ModelCategory returns a display category for a model type.
func ModelCategory(m ModelType) string {
	switch m {
	case ModelFredSeries, ModelFredSeriesInfo:
		return "Economy"
	case ModelEquityHistorical, ModelEquityInfo:
		return "Equity / Price"
	case ModelIncomeStatement, ModelBalanceSheet, ModelCashFlowStatement:
		return "Equity / Fundamentals"
	default:
		return "Other"
	}
}
