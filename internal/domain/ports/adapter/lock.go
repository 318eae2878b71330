package adapter

import (
	"context"
	"time"
)

// Locker is a coarse cross-process mutex. Room activation sync holds one per
// tenant so two syncs cannot interleave their deactivate/activate phases.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Cooldown enforces a minimum interval between repeats of an action.
// Reserve returns 0 when the action is admitted, otherwise the remaining wait.
// Release gives a reservation back when the admitted action failed.
type Cooldown interface {
	Reserve(ctx context.Context, key string, window time.Duration) (time.Duration, error)
	Release(ctx context.Context, key string) error
}
