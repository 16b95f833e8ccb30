package insights

import (
	"math"
	"sort"
	"time"

	"github.com/sellsight/analytics/internal/dataset"
	"github.com/sellsight/analytics/internal/domain"
)

// Price trend classifications.
const (
	TrendRising       = "Rising"
	TrendFalling      = "Falling"
	TrendStable       = "Stable"
	TrendInsufficient = "Insufficient data"
)

const (
	// trendThreshold is the relative change between the first and second
	// half of the price sequence that counts as a real move.
	trendThreshold = 0.05
	// repeatGapDays is the maximum gap between purchases still counted as a
	// repeat purchase.
	repeatGapDays = 30.0
	// daysPerMonth converts a date span into months for frequency stats.
	daysPerMonth = 30.0
)

// Calculator derives descriptive statistics from raw sale records. It is a
// pure function of the record set; results are invariant to input order.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes price and demand insights over the given window.
func (c *Calculator) Calculate(records []domain.SaleRecord) domain.Insights {
	sorted := make([]domain.SaleRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].SaleID < sorted[j].SaleID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return domain.Insights{
		Price:  c.priceInsights(sorted),
		Demand: c.demandInsights(sorted),
	}
}

func (c *Calculator) priceInsights(sorted []domain.SaleRecord) domain.PriceInsights {
	var (
		totalRevenue float64
		totalUnits   float64
		prices       []float64
	)
	for _, rec := range sorted {
		totalRevenue += rec.Revenue()
		totalUnits += rec.Quantity
		if rec.UnitPrice > 0 {
			prices = append(prices, rec.UnitPrice)
		}
	}

	out := domain.PriceInsights{Trend: priceTrend(prices)}
	if totalUnits > 0 {
		out.Average = totalRevenue / totalUnits
	}
	if len(prices) == 0 {
		return out
	}

	out.Min = prices[0]
	out.Max = prices[0]
	var sum float64
	for _, p := range prices {
		sum += p
		out.Min = math.Min(out.Min, p)
		out.Max = math.Max(out.Max, p)
	}
	mean := sum / float64(len(prices))

	// Population standard deviation over observed positive prices.
	var sq float64
	for _, p := range prices {
		d := p - mean
		sq += d * d
	}
	out.Volatility = math.Sqrt(sq / float64(len(prices)))

	return out
}

// priceTrend compares the mean of the first half of the chronological price
// sequence against the second half. Fewer than three points is inconclusive.
func priceTrend(prices []float64) string {
	if len(prices) < 3 {
		return TrendInsufficient
	}

	half := len(prices) / 2
	firstMean := mean(prices[:half])
	secondMean := mean(prices[half:])
	if firstMean == 0 {
		return TrendStable
	}

	change := (secondMean - firstMean) / firstMean
	switch {
	case change > trendThreshold:
		return TrendRising
	case change < -trendThreshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

func (c *Calculator) demandInsights(sorted []domain.SaleRecord) domain.DemandInsights {
	out := domain.DemandInsights{BehaviourLabel: TrendInsufficient}
	if len(sorted) == 0 {
		return out
	}

	var days []time.Time
	seen := make(map[time.Time]struct{})
	for _, rec := range sorted {
		out.TotalUnits += rec.Quantity
		out.TotalRevenue += rec.Revenue()
		day := dataset.DayUTC(rec.Date)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out.PurchaseCount = len(days)
	last := days[len(days)-1]
	out.LastPurchaseDate = &last
	out.AvgQuantityPerOrder = out.TotalUnits / float64(len(days))

	if len(days) > 1 {
		var gapSum float64
		var repeatGaps int
		for i := 1; i < len(days); i++ {
			gap := days[i].Sub(days[i-1]).Hours() / 24
			gapSum += gap
			if gap <= repeatGapDays {
				repeatGaps++
			}
		}
		out.AvgPurchaseIntervalDays = gapSum / float64(len(days)-1)
		out.RepeatPurchaseRate = float64(repeatGaps) / float64(len(days)-1)

		spanMonths := days[len(days)-1].Sub(days[0]).Hours() / 24 / daysPerMonth
		if spanMonths < 1 {
			spanMonths = 1
		}
		out.PurchaseFrequencyPerMonth = float64(len(days)) / spanMonths
	} else {
		// A single purchase date: frequency equals the count.
		out.PurchaseFrequencyPerMonth = float64(len(days))
	}

	out.BehaviourLabel = behaviourLabel(out.PurchaseFrequencyPerMonth, out.RepeatPurchaseRate)
	return out
}

// behaviourLabel combines purchase frequency with a loyalty qualifier.
func behaviourLabel(freqPerMonth, repeatRate float64) string {
	if freqPerMonth <= 0 || math.IsNaN(freqPerMonth) || math.IsInf(freqPerMonth, 0) {
		return TrendInsufficient
	}

	var label string
	switch {
	case freqPerMonth < 0.5:
		label = "Infrequent buyer"
	case freqPerMonth >= 2:
		label = "High-frequency buyer"
	default:
		label = "Regular buyer"
	}

	switch {
	case repeatRate >= 0.6:
		label += " (loyal)"
	case repeatRate <= 0.2:
		label += " (occasional)"
	}
	return label
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
