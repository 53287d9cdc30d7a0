package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker using in-process mutexes.
// Suitable for single-node deployments only.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryLocker creates a new MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]time.Time),
	}
}

// Acquire attempts to acquire a lock.
func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expiry, held := l.locks[key]; held && now.Before(expiry) {
		return false, nil
	}

	l.locks[key] = now.Add(ttl)
	return true, nil
}

// Release releases a lock.
func (l *MemoryLocker) Release(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locks[key]; !held {
		return false, nil
	}

	delete(l.locks, key)
	return true, nil
}

// Ensure MemoryLocker implements Locker
var _ Locker = (*MemoryLocker)(nil)
