package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Redis       *bool     `json:"redis,omitempty"` // nil when the cache is disabled
	ActiveCalls int       `json:"activeCalls"`
	CheckedAt   time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth pings dependencies once and stores the snapshot.
func CheckHealth(ctx context.Context, redisClient *redis.Client, activeCalls func() int) HealthStatus {
	status := HealthStatus{CheckedAt: time.Now()}
	if redisClient != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := redisClient.Ping(pctx).Err() == nil
		cancel()
		status.Redis = &ok
	}
	if activeCalls != nil {
		status.ActiveCalls = activeCalls()
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is done.
func StartHealthMonitor(ctx context.Context, interval time.Duration, redisClient *redis.Client, activeCalls func() int) {
	CheckHealth(ctx, redisClient, activeCalls)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, redisClient, activeCalls)
			}
		}
	}()
}
