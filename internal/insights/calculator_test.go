package insights

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/domain"
)

func record(daysFromStart int, saleID string, qty, price float64) domain.SaleRecord {
	return domain.SaleRecord{
		SaleID:    saleID,
		Date:      time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, daysFromStart),
		ProductID: "p1",
		UserID:    "u1",
		Quantity:  qty,
		UnitPrice: price,
	}
}

func TestCalculatePriceInsights(t *testing.T) {
	records := []domain.SaleRecord{
		record(0, "s1", 2, 10),
		record(5, "s2", 1, 12),
		record(10, "s3", 1, 14),
		record(15, "s4", 2, 16),
	}

	ins := NewCalculator().Calculate(records)

	// Average is revenue-weighted: (20+12+14+32)/6.
	assert.InDelta(t, 13.0, ins.Price.Average, 1e-9)
	assert.InDelta(t, 10.0, ins.Price.Min, 1e-9)
	assert.InDelta(t, 16.0, ins.Price.Max, 1e-9)
	// First half mean 11, second half mean 15: rising.
	assert.Equal(t, TrendRising, ins.Price.Trend)
	assert.Greater(t, ins.Price.Volatility, 0.0)
}

func TestCalculateTrendFalling(t *testing.T) {
	records := []domain.SaleRecord{
		record(0, "s1", 1, 20),
		record(1, "s2", 1, 20),
		record(2, "s3", 1, 10),
		record(3, "s4", 1, 10),
	}

	ins := NewCalculator().Calculate(records)
	assert.Equal(t, TrendFalling, ins.Price.Trend)
}

func TestCalculateTrendInsufficient(t *testing.T) {
	records := []domain.SaleRecord{
		record(0, "s1", 1, 10),
		record(1, "s2", 1, 20),
	}

	ins := NewCalculator().Calculate(records)
	assert.Equal(t, TrendInsufficient, ins.Price.Trend)
}

func TestCalculateIgnoresNonPositivePrices(t *testing.T) {
	records := []domain.SaleRecord{
		record(0, "s1", 1, 0), // giveaway, excluded from price stats
		record(1, "s2", 1, 10),
		record(2, "s3", 1, 10),
		record(3, "s4", 1, 10),
	}

	ins := NewCalculator().Calculate(records)
	assert.InDelta(t, 10.0, ins.Price.Min, 1e-9)
	assert.InDelta(t, 0.0, ins.Price.Volatility, 1e-9)
	assert.Equal(t, TrendStable, ins.Price.Trend)
}

func TestCalculateDemandInsights(t *testing.T) {
	// Four purchase days, ten days apart: every gap is a repeat.
	records := []domain.SaleRecord{
		record(0, "s1", 2, 10),
		record(10, "s2", 4, 10),
		record(20, "s3", 2, 10),
		record(30, "s4", 4, 10),
	}

	ins := NewCalculator().Calculate(records)

	assert.InDelta(t, 12.0, ins.Demand.TotalUnits, 1e-9)
	assert.Equal(t, 4, ins.Demand.PurchaseCount)
	assert.InDelta(t, 3.0, ins.Demand.AvgQuantityPerOrder, 1e-9)
	assert.InDelta(t, 10.0, ins.Demand.AvgPurchaseIntervalDays, 1e-9)
	assert.InDelta(t, 1.0, ins.Demand.RepeatPurchaseRate, 1e-9)
	// Span is 30 days = 1 month, so frequency is 4/month.
	assert.InDelta(t, 4.0, ins.Demand.PurchaseFrequencyPerMonth, 1e-9)
	assert.Equal(t, "High-frequency buyer (loyal)", ins.Demand.BehaviourLabel)
	require.NotNil(t, ins.Demand.LastPurchaseDate)
}

func TestCalculateSinglePurchase(t *testing.T) {
	ins := NewCalculator().Calculate([]domain.SaleRecord{record(0, "s1", 2, 10)})

	assert.Equal(t, 1, ins.Demand.PurchaseCount)
	assert.InDelta(t, 1.0, ins.Demand.PurchaseFrequencyPerMonth, 1e-9)
	assert.InDelta(t, 0.0, ins.Demand.RepeatPurchaseRate, 1e-9)
	assert.Equal(t, "Regular buyer (occasional)", ins.Demand.BehaviourLabel)
}

func TestCalculateEmptyRecords(t *testing.T) {
	ins := NewCalculator().Calculate(nil)
	assert.Equal(t, TrendInsufficient, ins.Price.Trend)
	assert.Equal(t, TrendInsufficient, ins.Demand.BehaviourLabel)
	assert.Equal(t, 0, ins.Demand.PurchaseCount)
}

func TestCalculateOrderInvariance(t *testing.T) {
	records := make([]domain.SaleRecord, 0, 30)
	for i := 0; i < 30; i++ {
		records = append(records, record(i*3, fmt.Sprintf("s%d", i), float64(1+i%4), 10+float64(i%7)))
	}

	want := NewCalculator().Calculate(records)

	shuffled := make([]domain.SaleRecord, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	got := NewCalculator().Calculate(shuffled)
	assert.Equal(t, want, got)
}

func TestBehaviourLabels(t *testing.T) {
	cases := []struct {
		freq, repeat float64
		want         string
	}{
		{0.2, 0.4, "Infrequent buyer"},
		{1.0, 0.7, "Regular buyer (loyal)"},
		{3.0, 0.1, "High-frequency buyer (occasional)"},
		{0, 0, TrendInsufficient},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, behaviourLabel(tc.freq, tc.repeat))
	}
}
