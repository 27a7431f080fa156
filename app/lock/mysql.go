package lock

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// MySQLLocker uses named advisory locks. A lock lives as long as the
// connection that took it, so the TTL is not enforced by the server.
type MySQLLocker struct {
	db    *sql.DB
	mu    sync.Mutex
	conns map[string]*sql.Conn
}

// NewMySQLLocker constructs a MySQL-based advisory lock manager.
func NewMySQLLocker(db *sql.DB) *MySQLLocker {
	return &MySQLLocker{
		db:    db,
		conns: make(map[string]*sql.Conn),
	}
}

// Acquire tries GET_LOCK with a zero wait and pins the connection on success.
func (l *MySQLLocker) Acquire(ctx context.Context, key string, _ time.Duration) error {
	l.mu.Lock()
	if _, exists := l.conns[key]; exists {
		l.mu.Unlock()
		return ErrAlreadyHeld
	}
	l.mu.Unlock()

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return err
	}

	var acquired sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return err
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		_ = conn.Close()
		return ErrNotAcquired
	}

	l.mu.Lock()
	l.conns[key] = conn
	l.mu.Unlock()

	return nil
}

// Refresh checks the pinned connection still holds the lock.
func (l *MySQLLocker) Refresh(ctx context.Context, key string, _ time.Duration) error {
	l.mu.Lock()
	conn, ok := l.conns[key]
	l.mu.Unlock()
	if !ok {
		return ErrNotAcquired
	}

	var owned sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT IS_USED_LOCK(?) = CONNECTION_ID()", key).Scan(&owned); err != nil {
		return err
	}
	if !owned.Valid || owned.Int64 != 1 {
		return ErrNotAcquired
	}
	return nil
}

func (l *MySQLLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	conn, ok := l.conns[key]
	if ok {
		delete(l.conns, key)
	}
	l.mu.Unlock()

	if !ok {
		return nil
	}

	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", key); err != nil {
		return err
	}
	return nil
}
