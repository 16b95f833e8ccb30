package forecast

import (
	"context"

	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/autoarima"
	"github.com/sartorproj/goarima/timeseries"

	"github.com/sellsight/analytics/internal/domain"
)

const arimaConfidence = 95.0

// ArimaForecaster is the trend-and-seasonality model variant, backed by
// Auto-ARIMA order selection with a plain ARIMA(1,1,1) fallback.
type ArimaForecaster struct{}

func NewArimaForecaster() *ArimaForecaster {
	return &ArimaForecaster{}
}

func (f *ArimaForecaster) ModelType() domain.ModelType {
	return domain.ModelARIMA
}

func (f *ArimaForecaster) Forecast(ctx context.Context, history []domain.DailyAggregate, period domain.Period, steps int) (*ModelOutput, error) {
	values := make([]float64, len(history))
	for i, b := range history {
		values[i] = b.TotalRevenue
	}

	// Degenerate histories: a constant series breaks differencing, and
	// fewer than three points cannot carry any pattern. Both fall back to a
	// constant mean-level forecast instead of erroring.
	if isConstant(values) || len(values) < 3 {
		return constantOutput(values, steps), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	forecasts, err := f.fitAndPredict(values, period, steps)
	if err != nil {
		return nil, domain.NewModelFittingError("arima fitting failed", err)
	}

	out := &ModelOutput{Points: make([]ModelPoint, len(forecasts))}
	for i, v := range forecasts {
		if v < 0 {
			v = 0
		}
		out.Points[i] = ModelPoint{Value: v, Confidence: arimaConfidence}
	}

	// Backtest on a held-out tail for accuracy metrics; a failed backtest
	// leaves the metrics empty rather than failing the forecast.
	holdout := backtestSize(len(values))
	if holdout > 0 && len(values)-holdout >= 3 {
		train := values[:len(values)-holdout]
		if !isConstant(train) {
			if predicted, err := f.fitAndPredict(train, period, holdout); err == nil {
				out.BacktestActual = values[len(values)-holdout:]
				out.BacktestPredicted = predicted
			}
		}
	}

	return out, nil
}

// fitAndPredict selects an order via Auto-ARIMA and predicts steps periods
// ahead, falling back to ARIMA(1,1,1) when the search fails.
func (f *ArimaForecaster) fitAndPredict(values []float64, period domain.Period, steps int) ([]float64, error) {
	series := &timeseries.Series{Values: values}

	cfg := autoarima.DefaultConfig()
	cfg.MaxP, cfg.MaxQ = 3, 3
	cfg.Criterion = "aicc"
	cfg.CompareModels = false
	cfg.AutoSeasonal = false

	// Seasonal search only when history covers at least two full cycles;
	// shorter series would hit singular seasonal components.
	if m := seasonalPeriod(period); m > 1 && len(values) >= 2*m {
		cfg.AutoSeasonal = true
		cfg.SeasonalPeriods = []int{m}
		cfg.SeasonalityThreshold = 0.1
		cfg.MaxSP, cfg.MaxSQ = 1, 1
	}

	if auto, err := autoarima.AutoARIMA(series, cfg); err == nil && auto != nil {
		if forecasts, err := auto.Predict(steps); err == nil && len(forecasts) == steps {
			return forecasts, nil
		}
	}

	model := arima.New(1, 1, 1)
	if err := model.Fit(series); err != nil {
		return nil, err
	}
	return model.Predict(steps)
}

func seasonalPeriod(period domain.Period) int {
	switch period {
	case domain.PeriodWeekly:
		return 7
	case domain.PeriodMonthly:
		return 12
	default:
		return 1
	}
}

// backtestSize keeps a fifth of the history for accuracy evaluation,
// between 1 and 12 periods.
func backtestSize(n int) int {
	h := n / 5
	if h < 1 {
		h = 1
	}
	if h > 12 {
		h = 12
	}
	if h >= n {
		return 0
	}
	return h
}

func isConstant(values []float64) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return len(values) > 0
}

// constantOutput forecasts the historical mean for every step. Used for
// flat or too-short series where model fitting is undefined.
func constantOutput(values []float64, steps int) *ModelOutput {
	var level float64
	if len(values) > 0 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		level = sum / float64(len(values))
	}
	if level < 0 {
		level = 0
	}

	out := &ModelOutput{Points: make([]ModelPoint, steps)}
	for i := range out.Points {
		out.Points[i] = ModelPoint{Value: level, Confidence: arimaConfidence}
	}
	out.BacktestActual = values
	out.BacktestPredicted = repeat(level, len(values))
	return out
}

func repeat(v float64, n int) []float64 {
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = v
	}
	return vs
}
