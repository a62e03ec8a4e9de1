package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/wabooking/config"
	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	offersTTL time.Duration
}

// NewClient builds the Redis client shared by the cache and the session store.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, offersTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    client,
		offersTTL: offersTTL,
	}
}

// GetOffers returns nil, nil on a cache miss.
func (c *RedisCache) GetOffers(ctx context.Context, origin, destination string, departure time.Time) ([]domain.Offer, error) {
	data, err := c.client.Get(ctx, offersKey(origin, destination, departure)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var offers []domain.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (c *RedisCache) SetOffers(ctx context.Context, origin, destination string, departure time.Time, offers []domain.Offer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, offersKey(origin, destination, departure), payload, c.offersTTL).Err()
}

// AcquireIssueLock takes the per-issue-key lock. It reports false when
// another request already holds it.
func (c *RedisCache) AcquireIssueLock(ctx context.Context, issueKey string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, issueLockKey(issueKey), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseIssueLock(ctx context.Context, issueKey string) error {
	return c.client.Del(ctx, issueLockKey(issueKey)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func offersKey(origin, destination string, departure time.Time) string {
	return fmt.Sprintf("cache:offers:%s:%s:%s", origin, destination, departure.UTC().Format("200601021504"))
}

func issueLockKey(issueKey string) string {
	return "lock:issue:" + issueKey
}
