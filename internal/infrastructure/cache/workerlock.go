package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const workerLockPrefix = "worker_lock:"

// WorkerLock is a Redis lease that keeps multiple deployed instances from
// polling the same queue at once. Acquire uses SetNX so exactly one holder
// wins; the TTL releases the lease if the holder dies without unlocking.
type WorkerLock struct {
	client *redis.Client
}

// NewWorkerLock creates a new WorkerLock instance.
func NewWorkerLock(client *redis.Client) *WorkerLock {
	return &WorkerLock{client: client}
}

func (l *WorkerLock) buildKey(name string) string {
	return workerLockPrefix + name
}

// TryAcquire atomically takes the named lease for ttl. Returns true when
// this instance holds the lease.
func (l *WorkerLock) TryAcquire(ctx context.Context, name, holderID string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.buildKey(name), holderID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire worker lock: %w", err)
	}
	return acquired, nil
}

// Extend refreshes the TTL when this holder still owns the lease.
func (l *WorkerLock) Extend(ctx context.Context, name, holderID string, ttl time.Duration) (bool, error) {
	// Check-and-extend runs as a single script so another holder's lease is
	// never refreshed by mistake.
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		return 0
	`)
	res, err := script.Run(ctx, l.client, []string{l.buildKey(name)}, holderID, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to extend worker lock: %w", err)
	}
	return res == 1, nil
}

// Release drops the lease if this holder owns it.
func (l *WorkerLock) Release(ctx context.Context, name, holderID string) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)
	if err := script.Run(ctx, l.client, []string{l.buildKey(name)}, holderID).Err(); err != nil {
		return fmt.Errorf("failed to release worker lock: %w", err)
	}
	return nil
}
