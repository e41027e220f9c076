// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"template-resolver/internal/common/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize     = 10
	defaultRedisMinIdleConns = 5
	defaultRedisDialTimeout  = 5 * time.Second
	defaultRedisIOTimeout    = 3 * time.Second
)

// RedisClient is the connection the template cache runs on.
type RedisClient struct {
	Client *redis.Client
	addr   string
}

// NewRedis builds a client for cfg without dialing. Unset pool and timeout
// settings fall back to the package defaults.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	return &RedisClient{Client: redis.NewClient(redisOptions(cfg)), addr: cfg.Address}, nil
}

// ConnectRedis builds a client and pings it. The client is closed again when
// the ping fails.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	c, err := NewRedis(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  orDuration(cfg.DialTimeoutMs, defaultRedisDialTimeout),
		ReadTimeout:  orDuration(cfg.ReadTimeoutMs, defaultRedisIOTimeout),
		WriteTimeout: orDuration(cfg.WriteTimeoutMs, defaultRedisIOTimeout),
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultRedisPoolSize
	}
	if opts.MinIdleConns <= 0 {
		opts.MinIdleConns = defaultRedisMinIdleConns
	}
	if opts.MinIdleConns > opts.PoolSize {
		opts.MinIdleConns = opts.PoolSize
	}
	return opts
}

func orDuration(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return config.GetDuration(ms)
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", c.addr, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
