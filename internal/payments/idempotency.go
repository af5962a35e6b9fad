package payments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultGuardTTL = 24 * time.Hour

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// IdempotencyGuard suppresses duplicate webhook deliveries cheaply before
// they reach the gateway fetch. The database unique constraint on the order
// remains the real duplicate barrier; this only saves the round trips.
type IdempotencyGuard struct {
	store idempotencyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard builds a guard for the given scope.
func NewIdempotencyGuard(store idempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store required")
	}
	if scope == "" {
		return nil, errors.New("idempotency scope required")
	}
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark reports whether the id was already seen, marking it seen
// otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("idempotency id required")
	}
	key := g.store.IdempotencyKey(g.scope, id)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Forget clears the mark so a failed delivery can be retried.
func (g *IdempotencyGuard) Forget(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, id))
}
