// Package redis backs the price cache and the event bus with go-redis/v9.
// One Client is shared by both; the bot's traffic is a single process
// polling on a seconds cadence, so the driver defaults are left alone apart
// from timeouts tuned to that cadence.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options selects the Redis endpoint.
type Options struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// Client is the shared connection handle.
type Client struct {
	rdb *redis.Client
}

// Dial connects and verifies the endpoint with a ping.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	ro := &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if opts.TLS {
		ro.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: dial %s: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
