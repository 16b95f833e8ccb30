package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sellsight/analytics/internal/batch"
	"github.com/sellsight/analytics/internal/cache"
	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/dataset"
	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/forecast"
	"github.com/sellsight/analytics/internal/insights"
	"github.com/sellsight/analytics/internal/repository"
	"github.com/sellsight/analytics/internal/storage"
)

// Identity carries who is asking. Elevated identities may run global-scope
// operations.
type Identity struct {
	UserID   string
	Elevated bool
}

// ForecastRequest is the service-level request for one product forecast.
type ForecastRequest struct {
	Scope     domain.Scope
	ProductID string
	Period    domain.Period
	Model     domain.ModelType
	StartDate time.Time
	EndDate   time.Time
	Features  domain.FeatureConfig
}

type ForecastService struct {
	sales     repository.SalesRepository
	forecasts repository.ForecastRepository
	cache     cache.ForecastCache
	archiver  *storage.Archiver

	builder    *dataset.Builder
	calculator *insights.Calculator
	engine     *forecast.Engine
	runner     *batch.Runner

	lookbackDays int
}

func NewForecastService(
	sales repository.SalesRepository,
	forecasts repository.ForecastRepository,
	cacheImpl cache.ForecastCache,
	archiver *storage.Archiver,
	cfg config.ForecastConfig,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}

	engineCfg := forecast.DefaultConfig()
	if cfg.FitTimeout > 0 {
		engineCfg.FitTimeout = cfg.FitTimeout
	}
	if cfg.RetryAttempts > 0 {
		engineCfg.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBackoff > 0 {
		engineCfg.RetryBackoff = cfg.RetryBackoff
	}
	if cfg.MAPEAlertThresh > 0 {
		engineCfg.MAPEAlertThreshold = cfg.MAPEAlertThresh
	}

	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 365
	}

	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = 4
	}

	return &ForecastService{
		sales:        sales,
		forecasts:    forecasts,
		cache:        cacheImpl,
		archiver:     archiver,
		builder:      dataset.NewBuilder(),
		calculator:   insights.NewCalculator(),
		engine:       forecast.NewEngine(engineCfg),
		runner:       batch.NewRunner(workers),
		lookbackDays: lookback,
	}
}

// Generate runs the full pipeline for one product: raw sales window, daily
// aggregation, insight calculation, model fitting, then persistence. The
// stored forecast is append-only; a rerun produces a new artifact.
func (s *ForecastService) Generate(ctx context.Context, id Identity, req ForecastRequest) (*domain.Forecast, error) {
	if err := s.authorize(id, req.Scope); err != nil {
		return nil, err
	}

	from := req.StartDate.AddDate(0, 0, -s.lookbackDays)
	records, err := s.sales.ProductSales(ctx, req.Scope, id.UserID, req.ProductID, from, req.StartDate)
	if err != nil {
		return nil, err
	}

	series, err := s.builder.Build(records)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Generate(ctx, forecast.Request{
		Scope:     req.Scope,
		UserID:    id.UserID,
		ProductID: req.ProductID,
		Period:    req.Period,
		Model:     req.Model,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Features:  req.Features,
	}, series)
	if err != nil {
		return nil, err
	}

	ins := s.calculator.Calculate(records)
	result.Insights = &ins

	if err := s.forecasts.Save(ctx, result); err != nil {
		return nil, err
	}

	if err := s.cache.SetLatest(ctx, result); err != nil {
		log.Warn().Err(err).Str("product_id", req.ProductID).Msg("forecast: cache set failed")
	}
	s.archive(ctx, result)

	return result, nil
}

// Latest returns the most recent forecast for a product, or a not-found
// error when none exists.
func (s *ForecastService) Latest(ctx context.Context, id Identity, scope domain.Scope, productID string) (*domain.Forecast, error) {
	if err := s.authorize(id, scope); err != nil {
		return nil, err
	}

	if f, ok, err := s.cache.GetLatest(ctx, scope, id.UserID, productID); err == nil && ok {
		return f, nil
	} else if err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("forecast: cache get failed")
	}

	f, err := s.forecasts.Latest(ctx, scope, id.UserID, productID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.NewNotFoundError("no forecast found for product %s", productID)
	}

	if err := s.cache.SetLatest(ctx, f); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("forecast: cache set failed")
	}
	return f, nil
}

func (s *ForecastService) List(ctx context.Context, id Identity, scope domain.Scope, productID string, limit int) ([]domain.Forecast, error) {
	if err := s.authorize(id, scope); err != nil {
		return nil, err
	}
	return s.forecasts.List(ctx, scope, id.UserID, productID, limit)
}

// BatchGenerate forecasts every visible product, optionally narrowed to one
// category. Individual failures are collected, not fatal.
func (s *ForecastService) BatchGenerate(ctx context.Context, id Identity, req ForecastRequest, category string) (*domain.BatchSummary, error) {
	if err := s.authorize(id, req.Scope); err != nil {
		return nil, err
	}

	products, err := s.sales.Products(ctx, req.Scope, id.UserID, category)
	if err != nil {
		return nil, err
	}

	summary := s.runner.Run(ctx, products, func(ctx context.Context, product domain.Product) error {
		perProduct := req
		perProduct.ProductID = product.ID
		_, err := s.Generate(ctx, id, perProduct)
		return err
	})

	return &summary, nil
}

// UpdateFeatureLabels rewrites the stored seasonality and economic-trend
// labels across a scope's forecasts and drops the scope's cache entries.
func (s *ForecastService) UpdateFeatureLabels(ctx context.Context, id Identity, scope domain.Scope, seasonality, economicTrend string) (int64, error) {
	if err := s.authorize(id, scope); err != nil {
		return 0, err
	}
	if seasonality == "" || economicTrend == "" {
		return 0, domain.NewValidationError("seasonality and economic trend labels are required")
	}

	updated, err := s.forecasts.UpdateFeatureLabels(ctx, scope, id.UserID, seasonality, economicTrend)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Invalidate(ctx, scope, id.UserID); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidation failed")
	}
	return updated, nil
}

func (s *ForecastService) authorize(id Identity, scope domain.Scope) error {
	if scope == domain.ScopeGlobal && !id.Elevated {
		return domain.NewPermissionError("global scope requires elevated access")
	}
	if scope == domain.ScopeUser && id.UserID == "" {
		return domain.NewValidationError("user id is required for user scope")
	}
	return nil
}

func (s *ForecastService) archive(ctx context.Context, f *domain.Forecast) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveForecast(ctx, f); err != nil {
		log.Warn().Err(err).Str("forecast_id", f.ID.String()).Msg("forecast: archive failed")
	}
}
