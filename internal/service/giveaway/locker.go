package giveaway

import (
	"context"
	"errors"
	"sync"
)

var errKeyHeld = errors.New("key held")

// KeyedLocker is an in-process Locker: one channel-based mutex per key,
// dropped once nobody holds or waits for it.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

func (l *KeyedLocker) acquireEntry(key string) *keyedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) releaseEntry(key string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireEntry(key)
	select {
	case e.ch <- struct{}{}:
		return l.unlocker(key, e), nil
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) TryLock(_ context.Context, key string) (func(), error) {
	e := l.acquireEntry(key)
	select {
	case e.ch <- struct{}{}:
		return l.unlocker(key, e), nil
	default:
		l.releaseEntry(key, e)
		return nil, errKeyHeld
	}
}

func (l *KeyedLocker) unlocker(key string, e *keyedEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseEntry(key, e)
		})
	}
}
