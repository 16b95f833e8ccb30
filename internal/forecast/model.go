package forecast

import (
	"context"

	"github.com/sellsight/analytics/internal/domain"
)

// ModelPoint is one future prediction from a model. HasBounds reports
// whether the interval is model-derived; when false the engine substitutes
// the documented ±10% fallback band around the point estimate.
type ModelPoint struct {
	Value      float64
	Lower      float64
	Upper      float64
	HasBounds  bool
	Confidence float64
}

// ModelOutput is the common contract both model variants emit: one point per
// requested future step, plus the backtest pairs used for accuracy metrics.
type ModelOutput struct {
	Points []ModelPoint

	// BacktestActual/BacktestPredicted are aligned value pairs from the
	// portion of history the model did not forecast blind. The ensemble
	// model reports in-sample training predictions; the seasonal-trend
	// model reports a held-out tail backtest.
	BacktestActual    []float64
	BacktestPredicted []float64
}

// Forecaster fits a model to a resampled history and predicts the requested
// number of future periods. Implementations must tolerate flat and
// minimum-length series without failing; genuinely numeric failures are
// returned as ModelFittingError for the engine's retry logic.
type Forecaster interface {
	ModelType() domain.ModelType
	Forecast(ctx context.Context, history []domain.DailyAggregate, period domain.Period, steps int) (*ModelOutput, error)
}

// ForecasterFor returns the model implementation for the requested variant.
func ForecasterFor(model domain.ModelType) Forecaster {
	if model == domain.ModelRandomForest {
		return NewEnsembleForecaster()
	}
	return NewArimaForecaster()
}
