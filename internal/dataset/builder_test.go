package dataset

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/domain"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2025, time.March, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func saleOn(t time.Time, saleID, productID string, qty, price float64) domain.SaleRecord {
	return domain.SaleRecord{
		SaleID:    saleID,
		Date:      t,
		ProductID: productID,
		UserID:    "u1",
		Quantity:  qty,
		UnitPrice: price,
	}
}

func TestBuildRejectsTooFewRecords(t *testing.T) {
	records := []domain.SaleRecord{
		saleOn(day(1), "s1", "p1", 1, 10),
		saleOn(day(2), "s2", "p1", 1, 10),
	}

	_, err := NewBuilder().Build(records)
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
}

func TestBuildRejectsTooFewDistinctDays(t *testing.T) {
	// Plenty of records, all on one busy day.
	records := make([]domain.SaleRecord, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, saleOn(day(1), fmt.Sprintf("s%d", i), "p1", 1, 10))
	}

	_, err := NewBuilder().Build(records)
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
}

func TestBuildAggregatesByUTCDay(t *testing.T) {
	records := make([]domain.SaleRecord, 0, 12)
	for i := 1; i <= 10; i++ {
		records = append(records, saleOn(day(i), fmt.Sprintf("s%d", i), "p1", 2, 5))
	}
	// Same calendar day as day(1) once normalized to UTC: 23:30 UTC-2 on
	// Feb 28 is 01:30 UTC on Mar 1.
	tz := time.FixedZone("UTC-2", -2*60*60)
	records = append(records,
		saleOn(time.Date(2025, time.February, 28, 23, 30, 0, 0, tz), "s11", "p1", 1, 5),
		saleOn(day(1).Add(18*time.Hour), "s12", "p1", 1, 5))

	series, err := NewBuilder().Build(records)
	require.NoError(t, err)
	require.Len(t, series, 10)

	assert.Equal(t, day(1), series[0].Date)
	// 2*5 from the base record plus two 1*5 late/offset records.
	assert.InDelta(t, 20.0, series[0].TotalRevenue, 1e-9)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Date.Before(series[i].Date), "series must ascend")
		assert.InDelta(t, 10.0, series[i].TotalRevenue, 1e-9)
	}
}

func TestBuildFlagsPromotionDays(t *testing.T) {
	records := make([]domain.SaleRecord, 0, 11)
	for i := 1; i <= 10; i++ {
		records = append(records, saleOn(day(i), fmt.Sprintf("s%d", i), "p1", 1, 10))
	}
	promo := saleOn(day(3), "s11", "p1", 1, 8)
	promo.Promotion = true
	records = append(records, promo)

	series, err := NewBuilder().Build(records)
	require.NoError(t, err)

	for _, agg := range series {
		if agg.Date.Equal(day(3)) {
			assert.True(t, agg.Promotion)
		} else {
			assert.False(t, agg.Promotion)
		}
	}
}

func TestTransactionsGroupBySale(t *testing.T) {
	records := []domain.SaleRecord{
		saleOn(day(1), "s1", "p2", 1, 10),
		saleOn(day(1), "s1", "p1", 1, 10),
		saleOn(day(1), "s1", "p1", 3, 10), // duplicate product in one sale
		saleOn(day(2), "s2", "p3", 1, 10),
	}

	txns := Transactions(records)
	require.Len(t, txns, 2)
	assert.Equal(t, domain.Transaction{"p1", "p2"}, txns[0])
	assert.Equal(t, domain.Transaction{"p3"}, txns[1])
}

func TestTransactionsEmptyInput(t *testing.T) {
	assert.Empty(t, Transactions(nil))
}
