// Package store provides the in-memory entry store backing the top-level
// database: key/value pairs addressed by the dense IDs the index assigns.
package store

import "sync"

// Entry is a stored key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Store is an append-only in-memory store from dense uint32 IDs to entries.
// IDs are assigned in append order starting at 0, matching the ID sequence
// of the index it sits next to.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries []Entry[K, V]
}

// New creates a new in-memory store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{}
}

// Append stores an entry under the next free ID and returns that ID.
func (s *Store[K, V]) Append(key K, value V) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry[K, V]{Key: key, Value: value})

	return uint32(len(s.entries) - 1)
}

// Get retrieves the entry associated with the given ID.
func (s *Store[K, V]) Get(id uint32) (Entry[K, V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.entries) {
		return Entry[K, V]{}, false
	}

	return s.entries[id], true
}

// Key retrieves only the key associated with the given ID. This is the
// cheap lookup used by per-candidate filters.
func (s *Store[K, V]) Key(id uint32) (K, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.entries) {
		var zero K
		return zero, false
	}

	return s.entries[id].Key, true
}

// Len returns the number of entries currently stored.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
