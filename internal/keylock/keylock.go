// Package keylock provides mutual exclusion scoped to a single key.
// Operations for the same principal must execute one at a time; operations
// for different principals never contend.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock hands out per-key mutexes. Entries are reference counted and
// removed once the last holder releases, so the map stays bounded by the
// number of in-flight operations.
type KeyLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func New() *KeyLock {
	return &KeyLock{
		entries: make(map[int64]*entry),
	}
}

// Lock acquires the mutex for key, blocking until any other holder of the
// same key releases it.
func (kl *KeyLock) Lock(key int64) {
	kl.mu.Lock()
	e, ok := kl.entries[key]
	if !ok {
		e = &entry{}
		kl.entries[key] = e
	}
	e.refs++
	kl.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that is not held is a
// programming error and panics, matching sync.Mutex semantics.
func (kl *KeyLock) Unlock(key int64) {
	kl.mu.Lock()
	e, ok := kl.entries[key]
	if !ok {
		kl.mu.Unlock()
		panic("keylock: unlock of unlocked key")
	}
	e.refs--
	if e.refs == 0 {
		delete(kl.entries, key)
	}
	kl.mu.Unlock()

	e.mu.Unlock()
}
