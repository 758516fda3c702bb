package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/redis/go-redis/v9"

	"stakeport/pkg/domain"
)

// Redis key prefix for latest accepted prices.
const priceKeyPrefix = "oracle:price:"

// RedisPriceCache serves the latest accepted price to the query path without
// touching the durable store. Entries expire after one report period so a
// silent oracle never serves an indefinitely stale value from cache.
type RedisPriceCache struct {
	client *redis.Client
}

func NewRedisPriceCache(client *redis.Client) *RedisPriceCache {
	return &RedisPriceCache{client: client}
}

func (c *RedisPriceCache) Get(ctx context.Context, poolID domain.ID) (math.LegacyDec, bool, error) {
	raw, err := c.client.Get(ctx, priceKeyPrefix+poolID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return math.LegacyDec{}, false, nil
	}
	if err != nil {
		return math.LegacyDec{}, false, fmt.Errorf("get cached price: %w", err)
	}
	price, err := math.LegacyNewDecFromStr(raw)
	if err != nil {
		return math.LegacyDec{}, false, fmt.Errorf("parse cached price: %w", err)
	}
	return price, true, nil
}

func (c *RedisPriceCache) Set(ctx context.Context, poolID domain.ID, price math.LegacyDec, ttl time.Duration) error {
	return c.client.Set(ctx, priceKeyPrefix+poolID.String(), price.String(), ttl).Err()
}
