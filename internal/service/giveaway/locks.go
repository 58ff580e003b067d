package giveaway

import (
	"sync"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// recordLocks serializes work per giveaway without a global lock.
type recordLocks struct {
	mu    sync.Mutex
	locks map[dg.ID]*recordLock
}

type recordLock struct {
	sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[dg.ID]*recordLock)}
}

// Lock blocks until the giveaway's lock is held and returns the unlock func.
func (l *recordLocks) Lock(id dg.ID) func() {
	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &recordLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()
	return func() {
		rl.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
