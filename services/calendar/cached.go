package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const slotCachePrefix = "cal:slot:"

// CachedCalendar remembers availability checks in redis for a short TTL so that
// repeated searches within a few minutes do not re-query the calendar for every slot.
// Redis failures are logged and fall through to the wrapped calendar.
type CachedCalendar struct {
	inner  Calendar
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedCalendar(inner Calendar, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedCalendar {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CachedCalendar{inner: inner, client: client, ttl: ttl, logger: logger}
}

func slotKey(start time.Time, duration time.Duration) string {
	return fmt.Sprintf("%s%d:%d", slotCachePrefix, start.Unix(), int(duration.Minutes()))
}

func (c *CachedCalendar) IsSlotAvailable(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	key := slotKey(start, duration)
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case err != redis.Nil:
		c.logger.Warn("Availability cache read failed", zap.String("key", key), zap.Error(err))
	}

	free, err := c.inner.IsSlotAvailable(ctx, start, duration)
	if err != nil {
		return free, err
	}
	flag := "0"
	if free {
		flag = "1"
	}
	if err := c.client.Set(ctx, key, flag, c.ttl).Err(); err != nil {
		c.logger.Warn("Availability cache write failed", zap.String("key", key), zap.Error(err))
	}
	return free, nil
}

func (c *CachedCalendar) CreateEvent(ctx context.Context, ev Event) (string, error) {
	id, err := c.inner.CreateEvent(ctx, ev)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, slotKey(ev.Start, ev.Duration), "0", c.ttl).Err(); err != nil {
		c.logger.Warn("Availability cache write failed", zap.Error(err))
	}
	return id, nil
}
