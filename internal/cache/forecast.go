package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/domain"
)

const forecastKeyPrefix = "forecast:latest"

// ForecastCache is a read-through cache over the latest forecast per
// product. Saving a new forecast invalidates the scope's entries.
type ForecastCache interface {
	GetLatest(ctx context.Context, scope domain.Scope, userID, productID string) (*domain.Forecast, bool, error)
	SetLatest(ctx context.Context, f *domain.Forecast) error
	Invalidate(ctx context.Context, scope domain.Scope, userID string) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetLatest(ctx context.Context, scope domain.Scope, userID, productID string) (*domain.Forecast, bool, error) {
	payload, err := c.client.Get(ctx, forecastKey(scope, userID, productID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var f domain.Forecast
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &f, true, nil
}

func (c *redisForecastCache) SetLatest(ctx context.Context, f *domain.Forecast) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	key := forecastKey(f.Scope, f.UserID, f.ProductID)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Invalidate(ctx context.Context, scope domain.Scope, userID string) error {
	prefix := fmt.Sprintf("%s:%s", forecastKeyPrefix, scopeKey(scope, userID))
	return deleteKeysWithPrefix(ctx, c.client, prefix, scanBatchSize)
}

func (noopForecastCache) GetLatest(context.Context, domain.Scope, string, string) (*domain.Forecast, bool, error) {
	return nil, false, nil
}

func (noopForecastCache) SetLatest(context.Context, *domain.Forecast) error { return nil }

func (noopForecastCache) Invalidate(context.Context, domain.Scope, string) error { return nil }

func forecastKey(scope domain.Scope, userID, productID string) string {
	return fmt.Sprintf("%s:%s:%s", forecastKeyPrefix, scopeKey(scope, userID), hashKey(productID))
}

// scopeKey folds the identity into a stable segment. Global entries share a
// single namespace; user entries hash the user id.
func scopeKey(scope domain.Scope, userID string) string {
	if scope == domain.ScopeGlobal {
		return "global"
	}
	return "user:" + hashKey(userID)
}

func hashKey(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
