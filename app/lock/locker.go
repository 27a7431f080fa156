package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrAlreadyHeld = errors.New("lock already held by this process")
var ErrNotAcquired = errors.New("lock not acquired")

// Locker abstracts distributed locking implementations.
type Locker interface {
	// Acquire attempts to lock a key for the given TTL without waiting.
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	// Refresh extends a held lock to a fresh TTL.
	Refresh(ctx context.Context, key string, ttl time.Duration) error
	// Release frees the lock for the given key.
	Release(ctx context.Context, key string) error
}

// DispatchKey names the lock guarding the dispatch of one mailing.
func DispatchKey(mailingID int64) string {
	return fmt.Sprintf("mailings:dispatch:%d", mailingID)
}
