// Package redis connects the rate limiter to its shared counter store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"turia/internal/platform/config"
)

// Client is a connected go-redis client that also reports health.
type Client struct {
	*redis.Client
}

// New connects to cfg.URL and pings it once. Without a URL there is nothing
// to connect to and New returns nil, nil; callers keep counters in memory.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &Client{Client: client}, nil
}

// options parses the URL and layers the pool settings on top. Zero values
// keep whatever the URL or go-redis chose.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	setPositive(&opts.PoolSize, cfg.PoolSize)
	setPositive(&opts.MinIdleConns, cfg.MinIdleConns)
	setPositive(&opts.DialTimeout, cfg.DialTimeout)
	setPositive(&opts.ReadTimeout, cfg.ReadTimeout)
	setPositive(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func setPositive[T ~int | ~int64](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
