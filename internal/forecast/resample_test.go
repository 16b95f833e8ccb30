package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/domain"
)

func utcDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dailySeries(start time.Time, revenues ...float64) []domain.DailyAggregate {
	out := make([]domain.DailyAggregate, len(revenues))
	for i, r := range revenues {
		out[i] = domain.DailyAggregate{Date: start.AddDate(0, 0, i), TotalRevenue: r}
	}
	return out
}

func TestResampleDailyFillsGaps(t *testing.T) {
	series := []domain.DailyAggregate{
		{Date: utcDay(2025, time.March, 1), TotalRevenue: 10},
		{Date: utcDay(2025, time.March, 4), TotalRevenue: 40},
	}

	out := Resample(series, domain.PeriodDaily)
	require.Len(t, out, 4)
	assert.InDelta(t, 10.0, out[0].TotalRevenue, 1e-9)
	assert.InDelta(t, 0.0, out[1].TotalRevenue, 1e-9)
	assert.InDelta(t, 0.0, out[2].TotalRevenue, 1e-9)
	assert.InDelta(t, 40.0, out[3].TotalRevenue, 1e-9)
}

func TestResampleWeeklyConservesRevenue(t *testing.T) {
	// Mar 3 2025 is a Monday; 21 days span three full weeks.
	series := dailySeries(utcDay(2025, time.March, 3),
		1, 2, 3, 4, 5, 6, 7,
		8, 9, 10, 11, 12, 13, 14,
		15, 16, 17, 18, 19, 20, 21)

	out := Resample(series, domain.PeriodWeekly)
	require.Len(t, out, 3)

	var total float64
	for _, b := range out {
		total += b.TotalRevenue
	}
	assert.InDelta(t, 231.0, total, 1e-9)
	assert.Equal(t, utcDay(2025, time.March, 3), out[0].Date)
	assert.Equal(t, utcDay(2025, time.March, 10), out[1].Date)
	assert.InDelta(t, 28.0, out[0].TotalRevenue, 1e-9)
}

func TestResampleWeeklyBucketsStartMonday(t *testing.T) {
	// Mar 5 2025 is a Wednesday, Mar 9 a Sunday: same bucket.
	series := []domain.DailyAggregate{
		{Date: utcDay(2025, time.March, 5), TotalRevenue: 10},
		{Date: utcDay(2025, time.March, 9), TotalRevenue: 20},
	}

	out := Resample(series, domain.PeriodWeekly)
	require.Len(t, out, 1)
	assert.Equal(t, utcDay(2025, time.March, 3), out[0].Date)
	assert.InDelta(t, 30.0, out[0].TotalRevenue, 1e-9)
}

func TestResampleMonthly(t *testing.T) {
	series := []domain.DailyAggregate{
		{Date: utcDay(2025, time.January, 15), TotalRevenue: 100},
		{Date: utcDay(2025, time.January, 28), TotalRevenue: 50},
		{Date: utcDay(2025, time.March, 2), TotalRevenue: 70},
	}

	out := Resample(series, domain.PeriodMonthly)
	require.Len(t, out, 3)
	assert.Equal(t, utcDay(2025, time.January, 1), out[0].Date)
	assert.InDelta(t, 150.0, out[0].TotalRevenue, 1e-9)
	assert.InDelta(t, 0.0, out[1].TotalRevenue, 1e-9) // February had no sales
	assert.InDelta(t, 70.0, out[2].TotalRevenue, 1e-9)
}

func TestResamplePreservesPromotionFlag(t *testing.T) {
	series := []domain.DailyAggregate{
		{Date: utcDay(2025, time.March, 3), TotalRevenue: 10},
		{Date: utcDay(2025, time.March, 4), TotalRevenue: 10, Promotion: true},
	}

	out := Resample(series, domain.PeriodWeekly)
	require.Len(t, out, 1)
	assert.True(t, out[0].Promotion)
}

func TestFutureDatesStartAfterHistory(t *testing.T) {
	last := utcDay(2025, time.March, 10)
	dates := futureDates(last, utcDay(2025, time.March, 1), utcDay(2025, time.March, 14), domain.PeriodDaily)

	require.Len(t, dates, 4)
	assert.Equal(t, utcDay(2025, time.March, 11), dates[0])
	assert.Equal(t, utcDay(2025, time.March, 14), dates[3])
}

func TestFutureDatesHonorRequestedStart(t *testing.T) {
	last := utcDay(2025, time.March, 1)
	dates := futureDates(last, utcDay(2025, time.March, 10), utcDay(2025, time.March, 12), domain.PeriodDaily)

	require.Len(t, dates, 3)
	assert.Equal(t, utcDay(2025, time.March, 10), dates[0])
}

func TestFutureDatesEmptyWhenRangeInPast(t *testing.T) {
	last := utcDay(2025, time.June, 1)
	dates := futureDates(last, utcDay(2025, time.March, 1), utcDay(2025, time.March, 31), domain.PeriodDaily)
	assert.Empty(t, dates)
}
