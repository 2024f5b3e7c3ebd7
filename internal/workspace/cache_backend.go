package workspace

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Phoenix-070/Edutranscribe/internal/cache"
)

// DefaultSessionTTL bounds how long an idle session's workspace survives in Redis.
const DefaultSessionTTL = 7 * 24 * time.Hour

// CacheBackend keeps the workspace as one JSON document under workspace:<session>.
// Updates go through the cache's atomic read-modify-write, so two processes
// sharing a session never overwrite each other's keys.
type CacheBackend struct {
	c   cache.Updater
	key string
	ttl time.Duration
}

func NewCacheBackend(c cache.Updater, sessionID string, ttl time.Duration) *CacheBackend {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &CacheBackend{c: c, key: cache.Key("workspace", sessionID), ttl: ttl}
}

func (b *CacheBackend) Load(ctx context.Context) (State, error) {
	var st State
	if _, err := b.c.GetJSON(ctx, b.key, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (b *CacheBackend) Update(ctx context.Context, fn func(*State) error) error {
	return b.c.UpdateJSON(ctx, b.key, b.ttl, func(cur []byte) ([]byte, error) {
		var st State
		if len(cur) > 0 {
			// an unreadable document reads as empty, matching GetJSON
			if err := json.Unmarshal(cur, &st); err != nil {
				st = State{}
			}
		}
		if err := fn(&st); err != nil {
			return nil, err
		}
		return json.Marshal(st)
	})
}
