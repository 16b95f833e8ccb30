package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/domain"
)

const basketKeyPrefix = "basket:latest"

// BasketCache holds the most recent market-basket run per scope.
type BasketCache interface {
	GetLatest(ctx context.Context, scope domain.Scope, userID string) (*domain.MarketBasketResult, bool, error)
	SetLatest(ctx context.Context, scope domain.Scope, userID string, res *domain.MarketBasketResult) error
}

type redisBasketCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopBasketCache struct{}

func NewBasketCache(cfg config.CacheConfig) (BasketCache, error) {
	if !cfg.Enabled {
		return &noopBasketCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisBasketCache{client: client, ttl: ttl}, nil
}

func NewNoopBasketCache() BasketCache {
	return &noopBasketCache{}
}

func (c *redisBasketCache) GetLatest(ctx context.Context, scope domain.Scope, userID string) (*domain.MarketBasketResult, bool, error) {
	payload, err := c.client.Get(ctx, basketKey(scope, userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var res domain.MarketBasketResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, false, fmt.Errorf("decode basket cache: %w", err)
	}
	return &res, true, nil
}

func (c *redisBasketCache) SetLatest(ctx context.Context, scope domain.Scope, userID string, res *domain.MarketBasketResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode basket cache: %w", err)
	}

	if err := c.client.Set(ctx, basketKey(scope, userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (noopBasketCache) GetLatest(context.Context, domain.Scope, string) (*domain.MarketBasketResult, bool, error) {
	return nil, false, nil
}

func (noopBasketCache) SetLatest(context.Context, domain.Scope, string, *domain.MarketBasketResult) error {
	return nil
}

func basketKey(scope domain.Scope, userID string) string {
	return fmt.Sprintf("%s:%s", basketKeyPrefix, scopeKey(scope, userID))
}
