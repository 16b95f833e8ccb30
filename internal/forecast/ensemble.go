package forecast

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sellsight/analytics/internal/domain"
)

const (
	ensembleTrees     = 50
	ensembleMaxDepth  = 5
	ensembleMinSplit  = 2
	ensembleSeed      = 42
	ensembleRollWindow = 3
)

// EnsembleForecaster is the ensemble-regression model variant: bagged
// regression trees over calendar, lag and rolling-window features, predicting
// future periods one step at a time on its own output.
type EnsembleForecaster struct{}

func NewEnsembleForecaster() *EnsembleForecaster {
	return &EnsembleForecaster{}
}

func (f *EnsembleForecaster) ModelType() domain.ModelType {
	return domain.ModelRandomForest
}

func (f *EnsembleForecaster) Forecast(ctx context.Context, history []domain.DailyAggregate, period domain.Period, steps int) (*ModelOutput, error) {
	values := make([]float64, len(history))
	promos := make([]bool, len(history))
	dates := make([]time.Time, len(history))
	for i, b := range history {
		values[i] = b.TotalRevenue
		promos[i] = b.Promotion
		dates[i] = b.Date
	}

	if isConstant(values) || len(values) < ensembleRollWindow+1 {
		return constantOutput(values, steps), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]float64, len(values))
	for i := range values {
		rows[i] = featureRow(dates[i], values, promos, i)
	}

	trees := make([]*regressionTree, ensembleTrees)
	rng := rand.New(rand.NewSource(ensembleSeed))
	for t := range trees {
		sample := bootstrapSample(rng, len(rows))
		sampleRows := make([][]float64, len(sample))
		sampleTargets := make([]float64, len(sample))
		for i, idx := range sample {
			sampleRows[i] = rows[idx]
			sampleTargets[i] = values[idx]
		}
		tree := &regressionTree{maxDepth: ensembleMaxDepth, minSamplesSplit: ensembleMinSplit}
		tree.fit(sampleRows, sampleTargets)
		trees[t] = tree
	}

	predict := func(row []float64) float64 {
		var sum float64
		for _, tree := range trees {
			sum += tree.predict(row)
		}
		return sum / float64(len(trees))
	}

	// In-sample predictions double as the accuracy backtest, and the train
	// fit quality maps onto the 0-100 confidence scale.
	fitted := make([]float64, len(rows))
	for i, row := range rows {
		fitted[i] = predict(row)
	}
	confidence := clamp01(rSquared(values, fitted)) * 100

	// Iterate one period at a time, feeding each prediction back into the
	// lag and rolling features of the next step.
	extValues := append([]float64(nil), values...)
	lastPromo := promos[len(promos)-1]
	date := dates[len(dates)-1]

	out := &ModelOutput{
		Points:            make([]ModelPoint, steps),
		BacktestActual:    values,
		BacktestPredicted: fitted,
	}
	for s := 0; s < steps; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date = nextBucket(date, period)
		row := futureFeatureRow(date, extValues, lastPromo)
		pred := predict(row)
		if pred < 0 {
			pred = 0
		}
		out.Points[s] = ModelPoint{Value: pred, Confidence: confidence}
		extValues = append(extValues, pred)
	}

	return out, nil
}

// featureRow builds the training features for position i: calendar month and
// quarter, two lagged revenues, the trailing rolling mean and standard
// deviation, and the promotion flag. Unavailable lags are zero-filled.
func featureRow(date time.Time, values []float64, promos []bool, i int) []float64 {
	row := make([]float64, 7)
	row[0] = float64(date.Month())
	row[1] = float64((int(date.Month())-1)/3 + 1)
	if i >= 1 {
		row[2] = values[i-1]
	}
	if i >= 2 {
		row[3] = values[i-2]
	}
	row[4], row[5] = trailingStats(values[:i])
	if promos[i] {
		row[6] = 1
	}
	return row
}

// futureFeatureRow mirrors featureRow for a not-yet-observed period, reading
// lags from the extended series.
func futureFeatureRow(date time.Time, extValues []float64, promo bool) []float64 {
	row := make([]float64, 7)
	row[0] = float64(date.Month())
	row[1] = float64((int(date.Month())-1)/3 + 1)
	n := len(extValues)
	if n >= 1 {
		row[2] = extValues[n-1]
	}
	if n >= 2 {
		row[3] = extValues[n-2]
	}
	row[4], row[5] = trailingStats(extValues)
	if promo {
		row[6] = 1
	}
	return row
}

// trailingStats returns mean and population stddev of the last rolling
// window of prior values, or zeros when the window is not yet full.
func trailingStats(prior []float64) (float64, float64) {
	if len(prior) < ensembleRollWindow {
		return 0, 0
	}
	window := prior[len(prior)-ensembleRollWindow:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	m := sum / float64(len(window))
	var sq float64
	for _, v := range window {
		d := v - m
		sq += d * d
	}
	return m, math.Sqrt(sq / float64(len(window)))
}

func rSquared(actual, predicted []float64) float64 {
	var meanA float64
	for _, v := range actual {
		meanA += v
	}
	meanA /= float64(len(actual))

	var ssRes, ssTot float64
	for i := range actual {
		d := actual[i] - predicted[i]
		ssRes += d * d
		t := actual[i] - meanA
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
