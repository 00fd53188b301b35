package dispatcher

import (
	"context"
	"time"

	"barakah/utils"

	"github.com/go-redis/redis/v8"
)

// Ledger remembers which (dedupe key, device) pairs were already delivered, so a
// retried or overlapping invocation does not send the same reminder twice.
type Ledger interface {
	// Claim returns false when key was already claimed and not released.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLedger claims keys with SETNX and lets them expire after the TTL.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, utils.LedgerPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (l *RedisLedger) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, utils.LedgerPrefix+key).Err()
}

// NopLedger claims everything; delivery is then at-least-once.
type NopLedger struct{}

func (NopLedger) Claim(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (NopLedger) Release(context.Context, string) error                      { return nil }
