package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireWindowLock attempts to acquire the lock for an aggregation window.
// Returns true if the lock was acquired, false if another run holds it.
func (s *LockStore) AcquireWindowLock(ctx context.Context, windowKey string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:aggregation:%s", windowKey)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseWindowLock releases the lock for an aggregation window.
func (s *LockStore) ReleaseWindowLock(ctx context.Context, windowKey string) error {
	key := fmt.Sprintf("lock:aggregation:%s", windowKey)

	return s.client.Del(ctx, key).Err()
}
