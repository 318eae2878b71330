package redis

import (
	"context"
	"time"

	"visitgate/internal/domain"
	"visitgate/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ adapter.Locker = (*Locker)(nil)

// Locker is a SetNX-based mutex with token-checked release. Room activation
// sync holds one per tenant.
type Locker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *Locker {
	return &Locker{cli: c.cli}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < 5; i++ { // 5 tries
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			continue
		}
		if ok {
			return token, nil
		}
		time.Sleep(50 * time.Millisecond) // wait before retrying
	}
	return "", domain.ErrOperationFailed
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
