package scaffold

import (
	"path/filepath"
	"sync"
)

// Locker hands out one mutex per experiment root so that builds of the
// same root run one at a time. Entries are dropped when unused.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*rootLock
}

type rootLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*rootLock)}
}

// Lock blocks until root is free and returns the matching unlock func.
func (l *Locker) Lock(root string) (unlock func()) {
	key := lockKey(root)

	l.mu.Lock()
	rl, ok := l.locks[key]
	if !ok {
		rl = &rootLock{}
		l.locks[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func lockKey(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}
