package forecast

import (
	"math"

	"github.com/sellsight/analytics/internal/domain"
)

// computeMetrics calculates RMSE, MAE and MAPE between actual and predicted
// values. MAPE skips points whose actual value is zero; if every actual is
// zero MAPE reports 0 instead of blowing up.
func computeMetrics(actual, predicted []float64) domain.Metrics {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return domain.Metrics{}
	}

	var sqSum, absSum, pctSum float64
	var pctCount int
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		sqSum += d * d
		absSum += math.Abs(d)
		if actual[i] != 0 {
			pctSum += math.Abs(d) / math.Abs(actual[i])
			pctCount++
		}
	}

	m := domain.Metrics{
		RMSE: math.Sqrt(sqSum / float64(n)),
		MAE:  absSum / float64(n),
	}
	if pctCount > 0 {
		m.MAPE = pctSum / float64(pctCount) * 100
	}
	return m
}
