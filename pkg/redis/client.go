package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/termpremium/pkg/config"
)

// ErrDisabled is returned by Ping on a disabled client
var ErrDisabled = errors.New("redis disabled")

const connectTimeout = 5 * time.Second

// Client wraps go-redis for the report cache and the API rate limiter.
// A disabled client turns both into no-ops.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects when REDIS_ENABLED is set and returns a disabled client otherwise.
// A configured but unreachable server is an error.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c := &Client{rdb: rdb, ttl: cfg.Redis.TTL}
	if err := c.Ping(ctx); err != nil {
		rdb.Close()
		return nil, err
	}
	return c, nil
}

// NewFromRedis wraps an existing go-redis client (tests, shared pools)
func NewFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{rdb: rdb, ttl: ttl}
}

// Disabled returns a client whose cache and limiter are no-ops
func Disabled() *Client {
	return &Client{}
}

// Ping checks the connection within connectTimeout
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.rdb.Options().Addr, err)
	}
	return nil
}

// TTL returns the configured report cache TTL
func (c *Client) TTL() time.Duration {
	return c.ttl
}

// Close closes the connection; closing a disabled client is a no-op
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether a connection is configured
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Redis returns the underlying client; nil when disabled
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
