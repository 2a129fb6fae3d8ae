// Package lock serializes read-reconcile-write sequences per user.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock could not be obtained before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker grants exclusive access to a key until the returned release func runs.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is an in-process keyed mutex. It only serializes callers in
// the same process.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemoryLocker builds an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*entry)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.done(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.done(key, e)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}
}

func (l *MemoryLocker) done(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
