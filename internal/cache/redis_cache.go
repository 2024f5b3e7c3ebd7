package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries of UpdateJSON under contention.
const maxUpdateAttempts = 32

// ErrContended is returned by UpdateJSON when every attempt lost to a
// concurrent writer.
var ErrContended = errors.New("cache: key kept changing during update")

// RedisCache stores JSON values in Redis. A non-empty namespace is prepended
// to every key so several programs can share one database.
type RedisCache struct {
	rdb       redis.UniversalClient
	namespace string
}

type RedisOption func(*RedisCache)

func WithNamespace(ns string) RedisOption {
	return func(c *RedisCache) { c.namespace = ns }
}

func NewRedisCache(rdb redis.UniversalClient, opts ...RedisOption) *RedisCache {
	c := &RedisCache{rdb: rdb}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return Key(c.namespace, k)
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	key = c.key(key)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// unreadable entries count as a miss and are dropped
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}

// UpdateJSON watches key, runs fn on its current value and writes the result
// in a MULTI block. A write by anyone else in between aborts the transaction
// and fn runs again on the fresh value.
func (c *RedisCache) UpdateJSON(ctx context.Context, key string, ttl time.Duration, fn func(cur []byte) ([]byte, error)) error {
	key = c.key(key)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			cur, err = nil, nil
		}
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := c.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ErrContended
}
