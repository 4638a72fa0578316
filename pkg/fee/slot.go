package fee

import "sync"

// Slot is a cache holding exactly one entry. Storing a new key replaces the
// previous entry.
type Slot[K comparable, V any] struct {
	mu    sync.Mutex
	key   K
	value V
	ok    bool
}

// Get returns the cached value when key matches the stored key
func (s *Slot[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ok && s.key == key {
		return s.value, true
	}
	var zero V
	return zero, false
}

// Put replaces the entry
func (s *Slot[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = key
	s.value = value
	s.ok = true
}

// Clear drops the entry
func (s *Slot[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zeroK K
	var zeroV V
	s.key, s.value, s.ok = zeroK, zeroV, false
}
