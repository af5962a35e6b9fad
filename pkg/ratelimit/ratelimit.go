// Package ratelimit implements fixed-window counters on Redis. Counters are
// best effort: they reset when the window key expires and are not meant to
// be a durable audit of attempts.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/inkwell-tcg/inkwell-backend/pkg/redis"
)

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Limiter counts hits per (scope, key) inside a fixed window.
type Limiter struct {
	store counterStore
}

// NewLimiter builds a limiter on the shared Redis client.
func NewLimiter(client *redisclient.Client) (*Limiter, error) {
	if client == nil {
		return nil, fmt.Errorf("ratelimit: redis client required")
	}
	return &Limiter{store: client}, nil
}

// Allow increments the counter for the key and reports whether the caller is
// still inside the limit. A non-positive limit disables the check.
func (l *Limiter) Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	counterKey := l.store.RateLimitKey(scope + ":" + key)
	count, err := l.store.IncrWithTTL(ctx, counterKey, window)
	if err != nil {
		return false, fmt.Errorf("ratelimit: increment %s: %w", scope, err)
	}
	return count <= int64(limit), nil
}
