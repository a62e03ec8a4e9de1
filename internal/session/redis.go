package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "wa:"

type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, prefix: defaultKeyPrefix}
}

func (r *RedisBackend) Get(ctx context.Context, address string) (domain.Session, bool, error) {
	data, err := r.client.Get(ctx, r.key(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, err
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		// a blob we cannot read is treated as no session at all
		return domain.Session{}, false, nil
	}
	return s, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, address string, s domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(address), payload, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, address string) error {
	return r.client.Del(ctx, r.key(address)).Err()
}

func (r *RedisBackend) DeleteIfVersion(ctx context.Context, address string, version int64) (bool, error) {
	key := r.key(address)
	removed := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}
		var s domain.Session
		if err := json.Unmarshal(data, &s); err != nil || s.Version != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		})
		if err == nil {
			removed = true
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *RedisBackend) key(address string) string {
	return r.prefix + address
}

var _ Backend = (*RedisBackend)(nil)
