// Package lock serialises work per key. The Redis implementation spans
// processes; the local one covers a single process and tests.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pollInterval = 100 * time.Millisecond

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes locks with SET NX PX.
type RedisLocker struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisLocker(client *redis.Client, prefix string, log *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, log: log}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// The caller's context may already be done; release on our own.
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, l.client, []string{full}, token).Err(); err != nil {
					l.log.Warn("lock release failed", zap.String("key", full), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// LocalLocker is an in-process locker keyed by string.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

// Acquire ignores ttl: a local lock cannot outlive its process.
func (l *LocalLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

// Locker is satisfied by both implementations.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// New picks Redis when a client is available and falls back to a local lock.
func New(client *redis.Client, prefix string, log *zap.Logger) Locker {
	if client != nil {
		return NewRedisLocker(client, prefix, log)
	}
	log.Info("Redis unavailable, using in-process locks")
	return NewLocalLocker()
}
