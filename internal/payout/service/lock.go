package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// runLock guards a settlement run so two admins clicking "mark paid"
// at once do not interleave runs. When no redis client is configured
// the lock degrades to a no-op; the per-deal guarded updates still
// keep settlement idempotent.
type runLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func newRunLock(client *redis.Client, key string, ttl time.Duration) *runLock {
	return &runLock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire takes the lock, reporting false when another run holds it.
func (l *runLock) Acquire(ctx context.Context) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Release frees the lock only if this run still owns it.
func (l *runLock) Release(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
