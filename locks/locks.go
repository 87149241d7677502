// Package locks provides a mutex per aggregate id so concurrent request
// handlers serialize mutations of the same aggregate without a global lock.
package locks

import "sync"

// Keyed hands out one mutex per key. Mutexes are never evicted; the key space
// here (aggregate ids touched by one process) is small enough not to matter.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed creates an empty keyed mutex set.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

// Defenders is the process-wide lock set for defender profiles. A profile is
// written as a whole document, so every component that reads-then-writes one
// (onboarding transitions, caseload arithmetic) must hold the profile's lock
// here; a private lock set would not serialize against the others.
var Defenders = NewKeyed()

// Lock acquires the mutex for key, creating it on first use.
func (k *Keyed) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *Keyed) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
