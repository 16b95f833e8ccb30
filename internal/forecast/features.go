package forecast

import (
	"github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"

	"github.com/sellsight/analytics/internal/domain"
)

const (
	seasonalityNone      = "None"
	seasonalityPotential = "Potential seasonality"
)

// DetectFeatures builds the feature snapshot stored with a forecast: a
// stationarity-based seasonality label, promotion presence, the most recent
// lagged revenue, and a qualitative trend label. Overrides from the request's
// feature config win over detection.
func DetectFeatures(series []domain.DailyAggregate, cfg domain.FeatureConfig) domain.FeatureSet {
	fs := domain.FeatureSet{
		Seasonality:   detectSeasonality(series),
		EconomicTrend: "Stable",
	}

	for _, b := range series {
		if b.Promotion {
			fs.Promotion = true
			break
		}
	}
	if len(series) > 1 {
		fs.LaggedSales = series[len(series)-2].TotalRevenue
	}

	if cfg.SeasonalityOverride != "" {
		fs.Seasonality = cfg.SeasonalityOverride
	}
	if cfg.EconomicTrendOverride != "" {
		fs.EconomicTrend = cfg.EconomicTrendOverride
	}
	return fs
}

// detectSeasonality labels the series via an augmented Dickey-Fuller test: a
// stationary series carries no seasonal signal worth flagging.
func detectSeasonality(series []domain.DailyAggregate) string {
	if len(series) < 4 {
		return seasonalityNone
	}

	values := make([]float64, len(series))
	flat := true
	for i, b := range series {
		values[i] = b.TotalRevenue
		if b.TotalRevenue != values[0] {
			flat = false
		}
	}
	// ADF is undefined on a constant series.
	if flat {
		return seasonalityNone
	}

	adf := stats.ADF(&timeseries.Series{Values: values}, 0)
	if adf == nil || adf.IsStationary {
		return seasonalityNone
	}
	return seasonalityPotential
}
