package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/domain"
)

// stubForecaster lets the engine tests control fitting behaviour directly.
type stubForecaster struct {
	calls   int
	failFor int
	err     error
	delay   time.Duration
}

func (s *stubForecaster) ModelType() domain.ModelType { return domain.ModelARIMA }

func (s *stubForecaster) Forecast(ctx context.Context, history []domain.DailyAggregate, period domain.Period, steps int) (*ModelOutput, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.calls <= s.failFor {
		return nil, s.err
	}
	return constantOutput([]float64{10, 10, 10}, steps), nil
}

func testRequest() Request {
	return Request{
		Scope:     domain.ScopeUser,
		UserID:    "u1",
		ProductID: "p1",
		Period:    domain.PeriodDaily,
		Model:     domain.ModelARIMA,
		StartDate: utcDay(2025, time.March, 16),
		EndDate:   utcDay(2025, time.March, 22),
	}
}

func flatDailySeries(n int, value float64) []domain.DailyAggregate {
	return dailySeries(utcDay(2025, time.March, 1), repeat(value, n)...)
}

func TestGenerateFlatSeries(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	f, err := engine.Generate(context.Background(), testRequest(), flatDailySeries(15, 120))
	require.NoError(t, err)

	require.Len(t, f.Predictions, 7)
	for _, p := range f.Predictions {
		assert.InDelta(t, 120.0, p.PredictedValue, 1e-9)
		assert.InDelta(t, 95.0, p.ConfidenceLevel, 1e-9)
		// Fallback band around the point estimate.
		assert.InDelta(t, 108.0, p.ConfidenceLower, 1e-9)
		assert.InDelta(t, 132.0, p.ConfidenceUpper, 1e-9)
	}

	assert.Equal(t, domain.ModelARIMA, f.ModelType)
	assert.InDelta(t, 0.0, f.Metrics.MAPE, 1e-9)
	assert.False(t, f.Alert.IsActive)
	assert.Equal(t, "None", f.Features.Seasonality)
	assert.NotEqual(t, "", f.ID.String())
}

func TestGenerateValidatesRequest(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	series := flatDailySeries(15, 10)

	cases := []func(*Request){
		func(r *Request) { r.ProductID = "" },
		func(r *Request) { r.Period = "Hourly" },
		func(r *Request) { r.Model = "Prophet" },
		func(r *Request) { r.StartDate, r.EndDate = r.EndDate, r.StartDate },
	}
	for _, mutate := range cases {
		req := testRequest()
		mutate(&req)
		_, err := engine.Generate(context.Background(), req, series)
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	}
}

func TestGenerateRejectsEmptySeries(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	_, err := engine.Generate(context.Background(), testRequest(), nil)
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
}

func TestGenerateRejectsPastRange(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	req := testRequest()
	req.StartDate = utcDay(2025, time.January, 1)
	req.EndDate = utcDay(2025, time.January, 10)

	_, err := engine.Generate(context.Background(), req, flatDailySeries(90, 10))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestGenerateAppliesFeatureOverrides(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	req := testRequest()
	req.Features = domain.FeatureConfig{
		SeasonalityOverride:   "Potential seasonality",
		EconomicTrendOverride: "Rising",
	}

	f, err := engine.Generate(context.Background(), req, flatDailySeries(15, 50))
	require.NoError(t, err)
	assert.Equal(t, "Potential seasonality", f.Features.Seasonality)
	assert.Equal(t, "Rising", f.Features.EconomicTrend)
}

func TestFitWithRetryRecovers(t *testing.T) {
	engine := NewEngine(Config{
		FitTimeout:    time.Second,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	})
	stub := &stubForecaster{
		failFor: 2,
		err:     domain.NewModelFittingError("singular matrix", nil),
	}

	out, err := engine.fitWithRetry(context.Background(), stub, flatDailySeries(15, 10), domain.PeriodDaily, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls)
	assert.Len(t, out.Points, 3)
}

func TestFitWithRetryExhaustsAttempts(t *testing.T) {
	engine := NewEngine(Config{
		FitTimeout:    time.Second,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	})
	stub := &stubForecaster{
		failFor: 10,
		err:     domain.NewModelFittingError("singular matrix", nil),
	}

	_, err := engine.fitWithRetry(context.Background(), stub, flatDailySeries(15, 10), domain.PeriodDaily, 3)
	require.Error(t, err)
	assert.Equal(t, domain.KindModelFitting, domain.KindOf(err))
	assert.Equal(t, 3, stub.calls)
}

func TestFitWithRetryDoesNotRetryValidation(t *testing.T) {
	engine := NewEngine(Config{
		FitTimeout:    time.Second,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	})
	stub := &stubForecaster{
		failFor: 10,
		err:     domain.NewValidationError("bad input"),
	}

	_, err := engine.fitWithRetry(context.Background(), stub, flatDailySeries(15, 10), domain.PeriodDaily, 3)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, 1, stub.calls)
}

func TestFitOnceTimesOut(t *testing.T) {
	engine := NewEngine(Config{
		FitTimeout:    20 * time.Millisecond,
		RetryAttempts: 1,
	})
	stub := &stubForecaster{delay: time.Second}

	_, err := engine.fitOnce(context.Background(), stub, flatDailySeries(15, 10), domain.PeriodDaily, 3)
	require.Error(t, err)
	assert.Equal(t, domain.KindModelFitting, domain.KindOf(err))
}

func TestToPredictionClamps(t *testing.T) {
	p := toPrediction(utcDay(2025, time.March, 1), ModelPoint{
		Value:      -5,
		Confidence: 120,
	})
	assert.InDelta(t, 0.0, p.PredictedValue, 1e-9)
	assert.InDelta(t, 100.0, p.ConfidenceLevel, 1e-9)
	assert.InDelta(t, 0.0, p.ConfidenceLower, 1e-9)
	assert.InDelta(t, 0.0, p.ConfidenceUpper, 1e-9)
}

func TestToPredictionKeepsModelBounds(t *testing.T) {
	p := toPrediction(utcDay(2025, time.March, 1), ModelPoint{
		Value:      100,
		Lower:      80,
		Upper:      130,
		HasBounds:  true,
		Confidence: 95,
	})
	assert.InDelta(t, 80.0, p.ConfidenceLower, 1e-9)
	assert.InDelta(t, 130.0, p.ConfidenceUpper, 1e-9)
}
