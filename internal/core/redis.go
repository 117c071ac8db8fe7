// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omarkt13/seafable/internal/config"
)

// Command timeouts stay short because every limited request and sign-in
// waits on Redis before falling back to process memory.
const (
	redisCommandTimeout = 500 * time.Millisecond
	redisPingTimeout    = 2 * time.Second
)

// Redis holds the shared rate-limit counters and the sign-in throttle.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client without dialing. Call Ping to find out whether
// the server is reachable.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = redisCommandTimeout
	opts.ReadTimeout = redisCommandTimeout
	opts.WriteTimeout = redisCommandTimeout
	opts.PoolTimeout = 2 * redisCommandTimeout
	opts.ConnMaxIdleTime = 5 * time.Minute

	return &Redis{Client: redis.NewClient(opts)}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
