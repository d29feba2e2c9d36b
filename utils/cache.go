package utils

import (
	"context"
	"fmt"
	"time"

	"centromedico/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the redis client backing the availability cache. It stays nil
// when REDIS_ADDR is not set.
var CacheClient *redis.Client

// InitCache connects to redis. It returns an error instead of exiting so the
// service can run with the cache disabled.
func InitCache() error {
	if config.AppConfig.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	CacheClient = client
	return nil
}

// GetCacheClient returns the cache client, or nil when caching is disabled.
func GetCacheClient() *redis.Client {
	return CacheClient
}
