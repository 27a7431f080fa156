package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`

// RedisLocker holds SET NX keys whose values are per-acquisition tokens, so a
// lock that expired and was taken by another process is never released or
// extended by its previous holder.
type RedisLocker struct {
	client *redis.Client
	mu     sync.Mutex
	held   map[string]string
}

// NewRedisLocker constructs a Redis-based lock manager.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: client,
		held:   make(map[string]string),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	if _, exists := l.held[key]; exists {
		l.mu.Unlock()
		return ErrAlreadyHeld
	}
	l.mu.Unlock()

	token, err := randomToken(16)
	if err != nil {
		return err
	}

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}

	l.mu.Lock()
	l.held[key] = token
	l.mu.Unlock()
	return nil
}

// Refresh resets the TTL of a held key. It fails with ErrNotAcquired when the
// key expired and now belongs to someone else.
func (l *RedisLocker) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	token, ok := l.held[key]
	l.mu.Unlock()
	if !ok {
		return ErrNotAcquired
	}

	n, err := l.client.Eval(ctx, refreshScript, []string{key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
		return ErrNotAcquired
	}
	return nil
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.held[key]
	if ok {
		delete(l.held, key)
	}
	l.mu.Unlock()

	if !ok {
		return nil
	}

	return l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
