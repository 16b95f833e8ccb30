package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/pkg/logger"
)

// Config holds the engine's execution safeguards. Fitting is treated as a
// blocking, cancelable-by-timeout operation: each attempt is bounded by
// FitTimeout and numeric failures are retried with backoff.
type Config struct {
	FitTimeout         time.Duration
	RetryAttempts      int
	RetryBackoff       time.Duration
	MAPEAlertThreshold float64
}

func DefaultConfig() Config {
	return Config{
		FitTimeout:         30 * time.Second,
		RetryAttempts:      3,
		RetryBackoff:       2 * time.Second,
		MAPEAlertThreshold: 20,
	}
}

// Request describes one forecast generation.
type Request struct {
	Scope     domain.Scope
	UserID    string
	ProductID string
	Period    domain.Period
	Model     domain.ModelType
	StartDate time.Time
	EndDate   time.Time
	Features  domain.FeatureConfig
}

// Validate rejects malformed requests before any computation starts.
func (r Request) Validate() error {
	if r.ProductID == "" && r.Scope != domain.ScopeGlobal {
		return domain.NewValidationError("product id is required")
	}
	if !domain.ValidPeriod(r.Period) {
		return domain.NewValidationError("unknown forecast period %q", r.Period)
	}
	if !domain.ValidModelType(r.Model) {
		return domain.NewValidationError("unknown model type %q", r.Model)
	}
	if r.Scope != domain.ScopeUser && r.Scope != domain.ScopeGlobal {
		return domain.NewValidationError("unknown scope %q", r.Scope)
	}
	if !r.StartDate.Before(r.EndDate) {
		return domain.NewValidationError("start date must be before end date")
	}
	return nil
}

// Engine turns a daily aggregate series into an immutable Forecast artifact.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

func NewEngine(cfg Config) *Engine {
	if cfg.FitTimeout <= 0 {
		cfg.FitTimeout = DefaultConfig().FitTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultConfig().RetryAttempts
	}
	if cfg.MAPEAlertThreshold <= 0 {
		cfg.MAPEAlertThreshold = DefaultConfig().MAPEAlertThreshold
	}
	return &Engine{cfg: cfg, log: logger.Component("forecast_engine")}
}

// Generate resamples the series to the requested period, detects features,
// fits the selected model and assembles the Forecast artifact. The caller
// supplies the lookback-filtered daily series from the dataset builder.
func (e *Engine) Generate(ctx context.Context, req Request, series []domain.DailyAggregate) (*domain.Forecast, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, domain.NewInsufficientDataError("empty daily series")
	}

	history := Resample(series, req.Period)
	features := DetectFeatures(history, req.Features)

	dates := futureDates(history[len(history)-1].Date, req.StartDate, req.EndDate, req.Period)
	if len(dates) == 0 {
		return nil, domain.NewValidationError(
			"date range yields no forecast periods after the last observation")
	}

	forecaster := ForecasterFor(req.Model)
	out, err := e.fitWithRetry(ctx, forecaster, history, req.Period, len(dates))
	if err != nil {
		return nil, err
	}

	predictions := make([]domain.Prediction, len(dates))
	for i, date := range dates {
		predictions[i] = toPrediction(date, out.Points[i])
	}

	metrics := computeMetrics(out.BacktestActual, out.BacktestPredicted)

	return &domain.Forecast{
		ID:          uuid.New(),
		Scope:       req.Scope,
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		Period:      req.Period,
		ModelType:   req.Model,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Predictions: predictions,
		Features:    features,
		Metrics:     metrics,
		Alert:       domain.AlertForMAPE(metrics.MAPE, e.cfg.MAPEAlertThreshold),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// fitWithRetry bounds each fitting attempt with the configured timeout and
// retries fitting failures and timeouts with backoff. Validation and context
// cancellation surface immediately.
func (e *Engine) fitWithRetry(ctx context.Context, fc Forecaster, history []domain.DailyAggregate, period domain.Period, steps int) (*ModelOutput, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.RetryAttempts; attempt++ {
		out, err := e.fitOnce(ctx, fc, history, period, steps)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}

		lastErr = err
		e.log.Warn().Err(err).
			Str("model", string(fc.ModelType())).
			Int("attempt", attempt).
			Int("max_attempts", e.cfg.RetryAttempts).
			Msg("model fitting attempt failed")

		if attempt < e.cfg.RetryAttempts && e.cfg.RetryBackoff > 0 {
			select {
			case <-time.After(e.cfg.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, domain.NewModelFittingError(
		fmt.Sprintf("model fitting failed after %d attempts", e.cfg.RetryAttempts), lastErr)
}

// fitOnce runs a single fitting attempt under the per-attempt wall clock.
// A timed-out attempt is abandoned and counted as failed, not as a crash.
func (e *Engine) fitOnce(parent context.Context, fc Forecaster, history []domain.DailyAggregate, period domain.Period, steps int) (*ModelOutput, error) {
	ctx, cancel := context.WithTimeout(parent, e.cfg.FitTimeout)
	defer cancel()

	type result struct {
		out *ModelOutput
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fc.Forecast(ctx, history, period, steps)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		return nil, domain.NewModelFittingError("model fitting attempt timed out", ctx.Err())
	}
}

func retryable(err error) bool {
	return domain.KindOf(err) == domain.KindModelFitting ||
		errors.Is(err, context.DeadlineExceeded)
}

// toPrediction converts a model point, clamping the confidence level into
// [0,100] and substituting the documented ±10% band when the model produced
// no genuine interval. The fallback is an approximation callers rely on, not
// a statistically derived confidence interval.
func toPrediction(date time.Time, p ModelPoint) domain.Prediction {
	pred := domain.Prediction{
		Date:            date,
		PredictedValue:  p.Value,
		ConfidenceLevel: p.Confidence,
	}
	if pred.PredictedValue < 0 {
		pred.PredictedValue = 0
	}
	if pred.ConfidenceLevel < 0 {
		pred.ConfidenceLevel = 0
	}
	if pred.ConfidenceLevel > 100 {
		pred.ConfidenceLevel = 100
	}

	if p.HasBounds {
		pred.ConfidenceLower = p.Lower
		pred.ConfidenceUpper = p.Upper
	} else {
		pred.ConfidenceLower = pred.PredictedValue * 0.9
		pred.ConfidenceUpper = pred.PredictedValue * 1.1
	}
	if pred.ConfidenceLower < 0 {
		pred.ConfidenceLower = 0
	}
	if pred.ConfidenceLower > pred.PredictedValue {
		pred.ConfidenceLower = pred.PredictedValue
	}
	if pred.ConfidenceUpper < pred.PredictedValue {
		pred.ConfidenceUpper = pred.PredictedValue
	}
	return pred
}
