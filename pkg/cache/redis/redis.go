package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

type ConnectionInfo struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	PoolSize    int
}

type Client = goredis.Client

func (i ConnectionInfo) options() *goredis.Options {
	return &goredis.Options{
		Addr:         i.Addr,
		Password:     i.Password,
		DB:           i.DB,
		MaxRetries:   i.MaxRetries,
		DialTimeout:  i.DialTimeout,
		ReadTimeout:  i.Timeout,
		WriteTimeout: i.Timeout,
		PoolSize:     i.PoolSize,
	}
}

// Connect dials redis and pings it once. The ping is bounded by info.Timeout,
// or five seconds when unset.
func Connect(ctx context.Context, info ConnectionInfo) (*Client, error) {
	rdb := goredis.NewClient(info.options())

	timeout := info.Timeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", info.Addr, err)
	}

	return rdb, nil
}

func Close(c *Client) error {
	if c == nil {
		return nil
	}
	return c.Close()
}
