package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sellsight/analytics/internal/basket"
	"github.com/sellsight/analytics/internal/cache"
	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/dataset"
	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/repository"
	"github.com/sellsight/analytics/internal/storage"
)

// BasketRequest scopes one market-basket mining run.
type BasketRequest struct {
	Scope         domain.Scope
	RangeStart    time.Time
	RangeEnd      time.Time
	MinSupport    float64
	MinConfidence float64
}

type BasketService struct {
	sales    repository.SalesRepository
	baskets  repository.BasketRepository
	cache    cache.BasketCache
	archiver *storage.Archiver
	cfg      config.BasketConfig
}

func NewBasketService(
	sales repository.SalesRepository,
	baskets repository.BasketRepository,
	cacheImpl cache.BasketCache,
	archiver *storage.Archiver,
	cfg config.BasketConfig,
) *BasketService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopBasketCache()
	}
	return &BasketService{
		sales:    sales,
		baskets:  baskets,
		cache:    cacheImpl,
		archiver: archiver,
		cfg:      cfg,
	}
}

// Analyze mines frequent itemsets and association rules over the sales in
// the window. An empty result is a valid outcome and is still persisted.
func (s *BasketService) Analyze(ctx context.Context, id Identity, req BasketRequest) (*domain.MarketBasketResult, error) {
	if err := s.authorize(id, req.Scope); err != nil {
		return nil, err
	}
	if !req.RangeStart.Before(req.RangeEnd) {
		return nil, domain.NewValidationError("range start must be before range end")
	}
	if req.MinSupport < 0 || req.MinSupport > 1 {
		return nil, domain.NewValidationError("minimum support must be within [0, 1]")
	}
	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		return nil, domain.NewValidationError("minimum confidence must be within [0, 1]")
	}

	records, err := s.sales.Sales(ctx, req.Scope, id.UserID, req.RangeStart, req.RangeEnd)
	if err != nil {
		return nil, err
	}

	minSupport := req.MinSupport
	if minSupport == 0 {
		minSupport = s.cfg.MinSupport
	}
	minConfidence := req.MinConfidence
	if minConfidence == 0 {
		minConfidence = s.cfg.MinConfidence
	}

	miner := basket.NewMiner(minSupport, minConfidence, s.cfg.MaxItemsetSize)
	itemsets, rules := miner.Mine(dataset.Transactions(records))

	result := &domain.MarketBasketResult{
		ID:            uuid.New(),
		AnalysisDate:  time.Now().UTC(),
		RangeStart:    req.RangeStart,
		RangeEnd:      req.RangeEnd,
		MinSupport:    miner.MinSupport,
		MinConfidence: miner.MinConfidence,
		Itemsets:      itemsets,
		Rules:         rules,
	}

	if err := s.baskets.Save(ctx, result, req.Scope, id.UserID); err != nil {
		return nil, err
	}

	if err := s.cache.SetLatest(ctx, req.Scope, id.UserID, result); err != nil {
		log.Warn().Err(err).Msg("basket: cache set failed")
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveBasket(ctx, result); err != nil {
			log.Warn().Err(err).Str("analysis_id", result.ID.String()).Msg("basket: archive failed")
		}
	}

	return result, nil
}

func (s *BasketService) List(ctx context.Context, id Identity, scope domain.Scope, limit int) ([]domain.MarketBasketResult, error) {
	if err := s.authorize(id, scope); err != nil {
		return nil, err
	}
	return s.baskets.List(ctx, scope, id.UserID, limit)
}

func (s *BasketService) authorize(id Identity, scope domain.Scope) error {
	if scope == domain.ScopeGlobal && !id.Elevated {
		return domain.NewPermissionError("global scope requires elevated access")
	}
	if scope == domain.ScopeUser && id.UserID == "" {
		return domain.NewValidationError("user id is required for user scope")
	}
	return nil
}
