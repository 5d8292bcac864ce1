// Package ratelimit throttles failed logins per email with Redis counters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("login limiter redis unavailable")

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// LoginLimiter counts failed attempts in a fixed window that starts at the first failure.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config LoginConfig
}

func NewLoginLimiter(redisClient redis.UniversalClient, cfg LoginConfig) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &LoginLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Allow reports whether another attempt for identifier may be checked.
func (l *LoginLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	count, err := l.redis.Get(ctx, loginKey(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count < int64(l.config.MaxAttempts), nil
}

// RecordFailure counts a failed attempt. The window starts at the first failure;
// a counter left without an expiry is given one so it cannot block forever.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	key := loginKey(identifier)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if incr.Val() == 1 || ttl.Val() < 0 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, loginKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func loginKey(identifier string) string {
	return "login:fail:" + identifier
}
