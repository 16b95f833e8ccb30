package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/domain"
)

type fakeBasketRepo struct {
	mu    sync.Mutex
	saved []*domain.MarketBasketResult
}

func (f *fakeBasketRepo) Save(ctx context.Context, res *domain.MarketBasketResult, scope domain.Scope, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, res)
	return nil
}

func (f *fakeBasketRepo) List(ctx context.Context, scope domain.Scope, userID string, limit int) ([]domain.MarketBasketResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MarketBasketResult, 0, len(f.saved))
	for _, res := range f.saved {
		out = append(out, *res)
	}
	return out, nil
}

func basketSales() map[string][]domain.SaleRecord {
	date := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	mk := func(saleID, productID string) domain.SaleRecord {
		return domain.SaleRecord{
			SaleID:    saleID,
			Date:      date,
			ProductID: productID,
			UserID:    "u1",
			Quantity:  1,
			UnitPrice: 5,
		}
	}
	return map[string][]domain.SaleRecord{
		"bread": {mk("s1", "bread"), mk("s2", "bread"), mk("s3", "bread")},
		"milk":  {mk("s1", "milk"), mk("s2", "milk")},
		"eggs":  {mk("s3", "eggs")},
	}
}

func newTestBasketService(sales *fakeSalesRepo, baskets *fakeBasketRepo) *BasketService {
	return NewBasketService(sales, baskets, nil, nil, config.BasketConfig{
		MinSupport:     0.01,
		MinConfidence:  0.5,
		MaxItemsetSize: 4,
	})
}

func testBasketRequest() BasketRequest {
	return BasketRequest{
		Scope:      domain.ScopeUser,
		RangeStart: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzePersistsResult(t *testing.T) {
	baskets := &fakeBasketRepo{}
	svc := newTestBasketService(&fakeSalesRepo{records: basketSales()}, baskets)

	res, err := svc.Analyze(context.Background(), Identity{UserID: "u1"}, testBasketRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Itemsets)
	assert.InDelta(t, 0.01, res.MinSupport, 1e-9)
	assert.InDelta(t, 0.5, res.MinConfidence, 1e-9)
	require.Len(t, baskets.saved, 1)
	assert.Equal(t, res.ID, baskets.saved[0].ID)
}

func TestAnalyzeThresholdOverrides(t *testing.T) {
	svc := newTestBasketService(&fakeSalesRepo{records: basketSales()}, &fakeBasketRepo{})

	req := testBasketRequest()
	req.MinSupport = 0.9
	req.MinConfidence = 0.95

	res, err := svc.Analyze(context.Background(), Identity{UserID: "u1"}, req)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, res.MinSupport, 1e-9)
	assert.Empty(t, res.Rules)
}

func TestAnalyzeEmptyWindowIsValid(t *testing.T) {
	svc := newTestBasketService(&fakeSalesRepo{}, &fakeBasketRepo{})

	res, err := svc.Analyze(context.Background(), Identity{UserID: "u1"}, testBasketRequest())
	require.NoError(t, err)
	assert.Empty(t, res.Itemsets)
	assert.Empty(t, res.Rules)
}

func TestAnalyzeValidation(t *testing.T) {
	svc := newTestBasketService(&fakeSalesRepo{}, &fakeBasketRepo{})

	req := testBasketRequest()
	req.RangeStart, req.RangeEnd = req.RangeEnd, req.RangeStart
	_, err := svc.Analyze(context.Background(), Identity{UserID: "u1"}, req)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	req = testBasketRequest()
	req.MinSupport = 1.5
	_, err = svc.Analyze(context.Background(), Identity{UserID: "u1"}, req)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	req = testBasketRequest()
	req.Scope = domain.ScopeGlobal
	_, err = svc.Analyze(context.Background(), Identity{UserID: "u1"}, req)
	assert.Equal(t, domain.KindPermission, domain.KindOf(err))
}
