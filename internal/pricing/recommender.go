package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/sellsight/analytics/internal/domain"
)

const (
	// demandSensitivity halves the demand signal before it moves the price.
	demandSensitivity = 0.5
	// adjustment ratio stays within ±20% of the base price.
	minAdjustment = 0.8
	maxAdjustment = 1.2
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Recommender suggests a bounded selling price from a forecast's demand
// signal and the caller's cost and target margin.
type Recommender struct{}

func NewRecommender() *Recommender {
	return &Recommender{}
}

// Recommend computes the price suggestion. The forecast is the most recent
// one for the product; insights, when present, anchor the historical demand
// and the price band.
func (r *Recommender) Recommend(forecast *domain.Forecast, cost, marginPct decimal.Decimal) (*domain.PriceRecommendation, error) {
	if forecast == nil {
		return nil, domain.NewNotFoundError("no forecast exists for the product")
	}
	if cost.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("cost must be positive")
	}
	if marginPct.IsNegative() {
		return nil, domain.NewValidationError("target margin must not be negative")
	}
	if len(forecast.Predictions) == 0 {
		return nil, domain.NewInsufficientDataError("forecast has no predictions")
	}

	var sum float64
	for _, p := range forecast.Predictions {
		sum += p.PredictedValue
	}
	avgForecastDemand := sum / float64(len(forecast.Predictions))

	// Historical average falls back to the forecast average when there is
	// no purchase history, which keeps the demand ratio at 1.
	historicalAvg := avgForecastDemand
	if d := forecast.Insights; d != nil && d.Demand.PurchaseCount > 0 {
		historicalAvg = d.Demand.TotalUnits / float64(d.Demand.PurchaseCount)
	}

	demandRatio := 1.0
	if historicalAvg > 0 {
		demandRatio = avgForecastDemand / historicalAvg
	}

	adjustment := 1 + (demandRatio-1)*demandSensitivity
	if adjustment < minAdjustment {
		adjustment = minAdjustment
	}
	if adjustment > maxAdjustment {
		adjustment = maxAdjustment
	}

	basePrice := cost.Mul(one.Add(marginPct.Div(hundred)))
	raw := basePrice.Mul(decimal.NewFromFloat(adjustment))

	minPrice, maxPrice := r.priceBand(forecast.Insights, cost, raw)

	recommended := raw
	if recommended.LessThan(minPrice) {
		recommended = minPrice
	}
	if recommended.GreaterThan(maxPrice) {
		recommended = maxPrice
	}

	return &domain.PriceRecommendation{
		ProductID:          forecast.ProductID,
		RecommendedPrice:   recommended.Round(2),
		MinPrice:           minPrice.Round(2),
		MaxPrice:           maxPrice.Round(2),
		BasePrice:          basePrice.Round(2),
		ExpectedMargin:     recommended.Sub(cost).Round(2),
		Cost:               cost,
		TargetMarginPct:    marginPct,
		AvgForecastDemand:  avgForecastDemand,
		HistoricalAvgUnits: historicalAvg,
		DemandRatio:        demandRatio,
		AdjustmentRatio:    adjustment,
	}, nil
}

// priceBand derives the allowed range: the floor tracks the historical
// minimum price with a cost guard, the ceiling the historical maximum with
// headroom. Without history the band hangs off cost and the raw suggestion.
func (r *Recommender) priceBand(ins *domain.Insights, cost, raw decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	minPrice := cost.Mul(decimal.NewFromFloat(1.05))
	if ins != nil && ins.Price.Min > 0 {
		histFloor := decimal.NewFromFloat(ins.Price.Min).Mul(decimal.NewFromFloat(0.95))
		costFloor := cost.Mul(decimal.NewFromFloat(1.01))
		minPrice = decimal.Max(histFloor, costFloor)
	}

	maxPrice := raw.Mul(decimal.NewFromFloat(1.2))
	if ins != nil && ins.Price.Max > 0 {
		maxPrice = decimal.NewFromFloat(ins.Price.Max).Mul(decimal.NewFromFloat(1.1))
	}

	if maxPrice.LessThan(minPrice) {
		maxPrice = minPrice
	}
	return minPrice, maxPrice
}
