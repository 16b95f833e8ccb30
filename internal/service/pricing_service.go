package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/pricing"
)

// PricingService turns the latest forecast for a product into a price
// recommendation.
type PricingService struct {
	forecasts   *ForecastService
	recommender *pricing.Recommender
}

func NewPricingService(forecasts *ForecastService) *PricingService {
	return &PricingService{
		forecasts:   forecasts,
		recommender: pricing.NewRecommender(),
	}
}

func (s *PricingService) Recommend(ctx context.Context, id Identity, scope domain.Scope, productID string, cost, marginPct decimal.Decimal) (*domain.PriceRecommendation, error) {
	latest, err := s.forecasts.Latest(ctx, id, scope, productID)
	if err != nil {
		return nil, err
	}
	return s.recommender.Recommend(latest, cost, marginPct)
}
