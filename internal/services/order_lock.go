package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payme-merchant/pkg/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OrderLocker serializes check-then-act sequences on a single order. The
// one-active-transaction-per-order invariant cannot be expressed as a
// database constraint, so every mutation path takes this lock for the
// order it touches.
type OrderLocker interface {
	// Lock acquires the lock for the given key and returns its release
	// function.
	Lock(ctx context.Context, key string) (func(), error)
}

// MemoryLocker is an in-process keyed mutex. Sufficient for the single
// instance deployment this service targets.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryLocker creates an in-process order locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// RedisLocker holds order locks in Redis so multiple replicas serialize on
// the same order. SET NX with a TTL, owner-checked release.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// NewRedisLocker creates a Redis-backed order locker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    10 * time.Second,
		retry:  50 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := "order_lock:" + key

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire order lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil && err != redis.Nil {
			logging.Errorf("Failed to release order lock %s: %v", lockKey, err)
		}
	}
	return release, nil
}
