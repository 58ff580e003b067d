package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/open-builders/giveaway-discord-bot/internal/platform/retry"
)

// Client wraps go-redis client to allow future extensions.
type Client struct {
	*redis.Client
}

// Open creates a new Redis client and pings it, retrying with backoff.
func Open(ctx context.Context, log zerolog.Logger, addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ping := func(ctx context.Context) error { return c.Ping(ctx).Err() }
	if err := retry.Do(ctx, log, "redis", 5, ping); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{Client: c}, nil
}
