package forecast

import (
	"sort"
	"time"

	"github.com/sellsight/analytics/internal/domain"
)

// bucketStart maps a day to the start of its aggregation bucket. Weekly
// buckets start on Monday, monthly buckets on the first of the month.
func bucketStart(day time.Time, period domain.Period) time.Time {
	switch period {
	case domain.PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case domain.PeriodMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// nextBucket advances a bucket start by one period.
func nextBucket(t time.Time, period domain.Period) time.Time {
	switch period {
	case domain.PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case domain.PeriodMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Resample buckets a daily series into the requested period. Total revenue is
// conserved: every day's revenue lands in exactly one bucket. Buckets between
// the first and last observation with no sales are materialized with zero
// revenue so the models see a complete, evenly spaced grid.
func Resample(series []domain.DailyAggregate, period domain.Period) []domain.DailyAggregate {
	if len(series) == 0 {
		return nil
	}

	byBucket := make(map[time.Time]*domain.DailyAggregate)
	for _, day := range series {
		start := bucketStart(day.Date, period)
		b, ok := byBucket[start]
		if !ok {
			b = &domain.DailyAggregate{Date: start}
			byBucket[start] = b
		}
		b.TotalRevenue += day.TotalRevenue
		b.Promotion = b.Promotion || day.Promotion
	}

	starts := make([]time.Time, 0, len(byBucket))
	for s := range byBucket {
		starts = append(starts, s)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	first, last := starts[0], starts[len(starts)-1]
	out := make([]domain.DailyAggregate, 0, len(byBucket))
	for t := first; !t.After(last); t = nextBucket(t, period) {
		if b, ok := byBucket[t]; ok {
			out = append(out, *b)
		} else {
			out = append(out, domain.DailyAggregate{Date: t})
		}
	}
	return out
}

// futureDates returns the forecast grid: bucket starts strictly after the
// last historical bucket, clamped to begin no earlier than the requested
// start and ending at the requested end date.
func futureDates(lastHistorical, start, end time.Time, period domain.Period) []time.Time {
	first := nextBucket(bucketStart(lastHistorical, period), period)
	requested := bucketStart(start, period)
	if requested.After(first) {
		first = requested
	}

	var dates []time.Time
	for t := first; !t.After(end); t = nextBucket(t, period) {
		dates = append(dates, t)
	}
	return dates
}
