package index

import "sync"

// keyedMutex serializes work per document id. Entries are reference counted
// and dropped once nobody holds or waits on them.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[int64]*lockEntry)}
}

// Lock blocks until id is free and returns the matching unlock.
func (k *keyedMutex) Lock(id int64) func() {
	e := k.acquire(id)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.release(id, e)
	}
}

// TryLock locks id only if it is free right now.
func (k *keyedMutex) TryLock(id int64) (func(), bool) {
	e := k.acquire(id)
	if !e.mu.TryLock() {
		k.release(id, e)
		return nil, false
	}
	return func() {
		e.mu.Unlock()
		k.release(id, e)
	}, true
}

func (k *keyedMutex) acquire(id int64) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{}
		k.entries[id] = e
	}
	e.refs++
	return e
}

func (k *keyedMutex) release(id int64, e *lockEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
