package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit"

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Limiter is a fixed window counter kept in Redis.
type Limiter struct {
	store  counter
	limit  int
	window time.Duration
}

// New builds a limiter. A nil client yields a limiter that admits everything.
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	l := &Limiter{limit: limit, window: window}
	if client != nil {
		l.store = client
	}
	return l
}

// Enabled reports whether requests are actually counted.
func (l *Limiter) Enabled() bool {
	return l != nil && l.store != nil && l.limit > 0
}

// Key composes the counter key for a client and route.
func Key(clientIP, route string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, clientIP, route)
}

// Allow increments the window counter for key and reports whether the call is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}

	count, err := l.store.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("set rate window: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}
