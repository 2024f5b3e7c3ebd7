package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis accepts a bare host:port or a redis:// URL from REDIS_ADDR,
// REDIS_URI or REDIS_URL.
func InitRedis() error {
	opt, err := redisOptions(firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"))
	if err != nil {
		return err
	}
	RedisClient = redis.NewClient(opt)
	return RedisClient.Ping(context.Background()).Err()
}

func redisOptions(val string) (*redis.Options, error) {
	if val == "" {
		return nil, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		return redis.ParseURL(val)
	}
	return &redis.Options{Addr: val}, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
