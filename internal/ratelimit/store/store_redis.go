package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"turia/internal/ratelimit/models"
)

// RedisLimiter counts hits in Redis so every instance shares one budget per
// client. Each window has its own key, which expires with the window.
type RedisLimiter struct {
	client redis.Cmdable
	window models.Window
	now    func() time.Time
}

func NewRedis(client redis.Cmdable, window models.Window) *RedisLimiter {
	return &RedisLimiter{client: client, window: window, now: time.Now}
}

// Allow increments the counter for identifier in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (*models.Result, error) {
	now := l.now()
	start := l.window.Start(now)
	key := models.Key(identifier, start)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window.Duration)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit incr %s: %w", key, err)
	}
	return models.NewResult(l.window, int(incr.Val()), start, now), nil
}

// Reset clears the current window for identifier.
func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	key := models.Key(identifier, l.window.Start(l.now()))
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("rate limit reset %s: %w", key, err)
	}
	return nil
}
