package redis

import (
	"context"
	"time"

	"visitgate/internal/domain/ports/adapter"
)

var _ adapter.Cooldown = (*CooldownLimiter)(nil)

// CooldownLimiter enforces a minimum interval between repeats of a keyed
// action (OTP resends). The key's TTL doubles as the remaining-wait answer.
type CooldownLimiter struct {
	client *Client
}

func NewCooldownLimiter(client *Client) *CooldownLimiter {
	return &CooldownLimiter{client: client}
}

// Reserve claims the key for the window. 0 means admitted; otherwise the
// caller must wait the returned duration.
func (r *CooldownLimiter) Reserve(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	ok, err := r.client.SetNX(ctx, key, 1, window)
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, nil
	}
	ttl, err := r.client.TTL(ctx, key)
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		// Key vanished between SETNX and TTL; treat as a full window.
		ttl = window
	}
	return ttl, nil
}

// Release drops the key so the next Reserve is admitted immediately.
func (r *CooldownLimiter) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key)
}
