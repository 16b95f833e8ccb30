package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scope controls whether an analysis covers one merchant's sales or all sales
// for a product. Global scope is privileged; callers must authorize it before
// invoking any service method (the core only documents the precondition).
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeGlobal Scope = "global"
)

// Period is the aggregation granularity of a forecast.
type Period string

const (
	PeriodDaily   Period = "Daily"
	PeriodWeekly  Period = "Weekly"
	PeriodMonthly Period = "Monthly"
)

// ModelType selects the forecasting model variant.
type ModelType string

const (
	ModelARIMA        ModelType = "ARIMA"
	ModelRandomForest ModelType = "RandomForest"
)

// ValidPeriod reports whether p is a known aggregation period.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// ValidModelType reports whether m is a known model variant.
func ValidModelType(m ModelType) bool {
	return m == ModelARIMA || m == ModelRandomForest
}

// SaleRecord is a single raw sale line item. Records are immutable inputs;
// duplicates are not deduplicated and aggregate additively.
type SaleRecord struct {
	SaleID    string    `json:"sale_id" db:"sale_id"`
	Date      time.Time `json:"date" db:"sold_at"`
	ProductID string    `json:"product_id" db:"product_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Promotion bool      `json:"promotion" db:"promotion"`
}

// Revenue is quantity times unit price for this line item.
func (r SaleRecord) Revenue() float64 {
	return r.Quantity * r.UnitPrice
}

// DailyAggregate is one day of aggregated sales for a product (or globally).
// Dates are normalized to UTC midnight; days with no sales are absent.
type DailyAggregate struct {
	Date         time.Time `json:"date" db:"date"`
	TotalRevenue float64   `json:"total_revenue" db:"total_revenue"`
	Promotion    bool      `json:"promotion" db:"promotion"`
}

// PriceInsights summarizes per-transaction price behaviour.
type PriceInsights struct {
	Average    float64 `json:"average"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Volatility float64 `json:"volatility"`
	Trend      string  `json:"trend"`
}

// DemandInsights summarizes purchase cadence and volume.
type DemandInsights struct {
	TotalUnits               float64    `json:"total_units"`
	TotalRevenue             float64    `json:"total_revenue"`
	AvgQuantityPerOrder      float64    `json:"avg_quantity_per_order"`
	AvgPurchaseIntervalDays  float64    `json:"avg_purchase_interval_days"`
	PurchaseFrequencyPerMonth float64   `json:"purchase_frequency_per_month"`
	RepeatPurchaseRate       float64    `json:"repeat_purchase_rate"`
	PurchaseCount            int        `json:"purchase_count"`
	LastPurchaseDate         *time.Time `json:"last_purchase_date,omitempty"`
	BehaviourLabel           string     `json:"behaviour_label"`
}

// Insights is the descriptive-statistics artifact for one product and scope,
// computed over the same raw window a forecast trains on.
type Insights struct {
	Price  PriceInsights  `json:"price"`
	Demand DemandInsights `json:"demand"`
}

// Prediction is one future-dated point of a forecast with its bounds.
type Prediction struct {
	Date            time.Time `json:"date"`
	PredictedValue  float64   `json:"predicted_value"`
	ConfidenceLevel float64   `json:"confidence_level"`
	ConfidenceUpper float64   `json:"confidence_upper"`
	ConfidenceLower float64   `json:"confidence_lower"`
}

// FeatureSet is the pre-fit feature snapshot stored with a forecast. The
// labels are metadata passed through to consumers; they do not alter the fit.
type FeatureSet struct {
	Seasonality   string  `json:"seasonality"`
	Promotion     bool    `json:"promotion"`
	LaggedSales   float64 `json:"lagged_sales"`
	EconomicTrend string  `json:"economic_trend"`
}

// FeatureConfig carries optional per-request label overrides, replacing the
// stored cross-cutting feature settings of the legacy system.
type FeatureConfig struct {
	SeasonalityOverride   string `json:"seasonality_override,omitempty"`
	EconomicTrendOverride string `json:"economic_trend_override,omitempty"`
}

// Metrics holds in-sample forecast accuracy metrics.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// Alert flags a forecast whose error metrics exceed the business threshold.
type Alert struct {
	IsActive bool   `json:"is_active"`
	Message  string `json:"message"`
}

// HighErrorMessage is the standard alert message for high-MAPE forecasts.
const HighErrorMessage = "High prediction error"

// AlertForMAPE applies the pass-through alerting rule: MAPE above the
// threshold activates the alert with the standard message.
func AlertForMAPE(mape, threshold float64) Alert {
	if mape > threshold {
		return Alert{IsActive: true, Message: HighErrorMessage}
	}
	return Alert{}
}

// Forecast is the output artifact of one generation request. It is created
// once and never mutated, except uniform feature-label edits that do not
// re-run the model.
type Forecast struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Scope       Scope        `json:"scope" db:"scope"`
	UserID      string       `json:"user_id,omitempty" db:"user_id"`
	ProductID   string       `json:"product_id" db:"product_id"`
	Period      Period       `json:"period" db:"period"`
	ModelType   ModelType    `json:"model_type" db:"model_type"`
	StartDate   time.Time    `json:"start_date" db:"start_date"`
	EndDate     time.Time    `json:"end_date" db:"end_date"`
	Predictions []Prediction `json:"predictions"`
	Features    FeatureSet   `json:"features"`
	Metrics     Metrics      `json:"metrics"`
	Alert       Alert        `json:"alert"`
	Insights    *Insights    `json:"insights,omitempty"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// Itemset is a frequent set of co-purchased products.
type Itemset struct {
	Items   []string `json:"items"`
	Support float64  `json:"support"`
}

// AssociationRule is a mined "antecedents imply consequents" rule.
// Antecedents and consequents are always disjoint.
type AssociationRule struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  float64  `json:"confidence"`
	Lift        float64  `json:"lift"`
}

// MarketBasketResult is the artifact of one mining run. Empty itemsets and
// rules are a valid outcome, not an error.
type MarketBasketResult struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	AnalysisDate  time.Time         `json:"analysis_date" db:"analysis_date"`
	RangeStart    time.Time         `json:"range_start" db:"range_start"`
	RangeEnd      time.Time         `json:"range_end" db:"range_end"`
	MinSupport    float64           `json:"min_support" db:"min_support"`
	MinConfidence float64           `json:"min_confidence" db:"min_confidence"`
	Itemsets      []Itemset         `json:"itemsets"`
	Rules         []AssociationRule `json:"rules"`
}

// Transaction is the set of product ids purchased together in one sale.
type Transaction []string

// PriceRecommendation is the pricing engine response. Monetary fields are
// decimals; the reference ratios are kept for transparency.
type PriceRecommendation struct {
	ProductID          string          `json:"product_id"`
	RecommendedPrice   decimal.Decimal `json:"recommended_price"`
	MinPrice           decimal.Decimal `json:"min_price"`
	MaxPrice           decimal.Decimal `json:"max_price"`
	BasePrice          decimal.Decimal `json:"base_price"`
	ExpectedMargin     decimal.Decimal `json:"expected_margin"`
	Cost               decimal.Decimal `json:"cost"`
	TargetMarginPct    decimal.Decimal `json:"target_margin_pct"`
	AvgForecastDemand  float64         `json:"avg_forecast_demand"`
	HistoricalAvgUnits float64         `json:"historical_avg_units"`
	DemandRatio        float64         `json:"demand_ratio"`
	AdjustmentRatio    float64         `json:"adjustment_ratio"`
}

// Product carries the identifying fields batch summaries report on failures.
type Product struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category" db:"category"`
}

// BatchFailure records one product's failure inside a batch run.
type BatchFailure struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Error     string `json:"error"`
}

// BatchSummary is the partial-success contract of a batch forecast run.
type BatchSummary struct {
	TotalProducts       int            `json:"total_products"`
	SuccessfulForecasts int            `json:"successful_forecasts"`
	Failures            []BatchFailure `json:"failures"`
}
