package cache

import (
	"context"
	"time"
)

// Cache stores JSON documents under string keys. A ttl of zero means no expiry.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Updater is a Cache that can read-modify-write one document atomically.
// fn receives the stored JSON (nil on a miss) and returns the replacement.
// fn may be called again when a concurrent writer won the race.
type Updater interface {
	Cache
	UpdateJSON(ctx context.Context, key string, ttl time.Duration, fn func(cur []byte) ([]byte, error)) error
}

// Key joins key parts with ':' the way the rest of the Redis keyspace is named.
func Key(parts ...string) string {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, ':')
		}
		b = append(b, p...)
	}
	return string(b)
}
