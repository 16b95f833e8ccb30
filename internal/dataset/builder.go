package dataset

import (
	"sort"
	"time"

	"github.com/sellsight/analytics/internal/domain"
)

const (
	// MinRecords is the minimum number of raw line items required.
	MinRecords = 10
	// MinDistinctDays is the minimum number of distinct sale dates required
	// after aggregation. Both checks apply: a single busy day with many line
	// items must not satisfy the minimum on its own.
	MinDistinctDays = 10
)

// Builder aggregates raw sale line items into a daily revenue series.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// DayUTC normalizes t to UTC midnight so the same instant always buckets to
// the same calendar day regardless of its time-of-day component.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Build aggregates records into an ascending daily series. Revenue per day is
// the additive sum of quantity*unitPrice over the day's records; a day is
// flagged as promotional when any contributing record is. Missing days are
// not filled; gap handling belongs to the forecast engine.
func (b *Builder) Build(records []domain.SaleRecord) ([]domain.DailyAggregate, error) {
	if len(records) < MinRecords {
		return nil, domain.NewInsufficientDataError(
			"need at least %d sale records, got %d", MinRecords, len(records))
	}

	byDay := make(map[time.Time]*domain.DailyAggregate)
	for _, rec := range records {
		day := DayUTC(rec.Date)
		agg, ok := byDay[day]
		if !ok {
			agg = &domain.DailyAggregate{Date: day}
			byDay[day] = agg
		}
		agg.TotalRevenue += rec.Revenue()
		agg.Promotion = agg.Promotion || rec.Promotion
	}

	if len(byDay) < MinDistinctDays {
		return nil, domain.NewInsufficientDataError(
			"need sales on at least %d distinct days, got %d", MinDistinctDays, len(byDay))
	}

	series := make([]domain.DailyAggregate, 0, len(byDay))
	for _, agg := range byDay {
		series = append(series, *agg)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return series, nil
}

// Transactions groups records by sale id into co-purchase item sets for the
// market-basket engine. Each transaction lists distinct product ids only.
func Transactions(records []domain.SaleRecord) []domain.Transaction {
	bySale := make(map[string]map[string]struct{})
	order := make([]string, 0)
	for _, rec := range records {
		items, ok := bySale[rec.SaleID]
		if !ok {
			items = make(map[string]struct{})
			bySale[rec.SaleID] = items
			order = append(order, rec.SaleID)
		}
		items[rec.ProductID] = struct{}{}
	}

	txns := make([]domain.Transaction, 0, len(order))
	for _, saleID := range order {
		items := bySale[saleID]
		txn := make(domain.Transaction, 0, len(items))
		for id := range items {
			txn = append(txn, id)
		}
		sort.Strings(txn)
		txns = append(txns, txn)
	}
	return txns
}
