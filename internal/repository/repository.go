package repository

import (
	"context"
	"time"

	"github.com/sellsight/analytics/internal/domain"
)

// SalesRepository reads the immutable sales corpus. Every analytics run
// works from a snapshot read; nothing here mutates sale records.
type SalesRepository interface {
	// ProductSales returns the raw line items for one product within
	// [from, to). Global scope ignores the user filter.
	ProductSales(ctx context.Context, scope domain.Scope, userID, productID string, from, to time.Time) ([]domain.SaleRecord, error)

	// Sales returns all line items in the window for the scope, used to
	// derive co-purchase transactions.
	Sales(ctx context.Context, scope domain.Scope, userID string, from, to time.Time) ([]domain.SaleRecord, error)

	// Products lists products visible to the scope, optionally filtered by
	// category.
	Products(ctx context.Context, scope domain.Scope, userID, category string) ([]domain.Product, error)

	// Product fetches one product by id.
	Product(ctx context.Context, id string) (*domain.Product, error)
}

// ForecastRepository stores forecast artifacts append-only: a new forecast
// is always inserted, never updated, except the uniform feature-label edit.
type ForecastRepository interface {
	Save(ctx context.Context, f *domain.Forecast) error
	Latest(ctx context.Context, scope domain.Scope, userID, productID string) (*domain.Forecast, error)
	List(ctx context.Context, scope domain.Scope, userID, productID string, limit int) ([]domain.Forecast, error)

	// UpdateFeatureLabels uniformly rewrites the stored seasonality and
	// economic-trend labels for a scope's forecasts without re-running any
	// model. Returns the number of edited forecasts.
	UpdateFeatureLabels(ctx context.Context, scope domain.Scope, userID, seasonality, economicTrend string) (int64, error)
}

// BasketRepository stores market-basket analysis artifacts append-only.
type BasketRepository interface {
	Save(ctx context.Context, res *domain.MarketBasketResult, scope domain.Scope, userID string) error
	List(ctx context.Context, scope domain.Scope, userID string, limit int) ([]domain.MarketBasketResult, error)
}
