// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"fmt"
	"sync"
)

// Observer receives a snapshot of the session after every mutation.
type Observer func(entries []QueryEntry)

// Store is the ordered, mutable collection of query entries.
// All mutations happen under a single lock, and observers are notified once per
// mutation with the resulting snapshot.
type Store struct {
	mu        sync.RWMutex
	entries   []QueryEntry
	observers map[int]Observer
	nextID    int
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{observers: make(map[int]Observer)}
}

// Append adds an entry at the end of the session.
func (s *Store) Append(e QueryEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, e.Clone())
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	s.notify(nil)
}

// ReplaceWith swaps the whole session for entries, in order.
// Observers see only the final state, never the intermediate empty session.
func (s *Store) ReplaceWith(entries []QueryEntry) {
	fresh := make([]QueryEntry, 0, len(entries))
	for _, e := range entries {
		fresh = append(fresh, e.Clone())
	}

	s.mu.Lock()
	s.entries = fresh
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Set replaces the entry at index i, used when an edited query is re-evaluated.
func (s *Store) Set(i int, e QueryEntry) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.entries) {
		n := len(s.entries)
		s.mu.Unlock()
		return fmt.Errorf("entry %d out of range (session has %d entries)", i, n)
	}
	s.entries[i] = e.Clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Entries returns a deep copy of the session in order.
func (s *Store) Entries() []QueryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Entry returns a copy of the entry at index i.
func (s *Store) Entry(i int) (QueryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return QueryEntry{}, false
	}
	return s.entries[i].Clone(), true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() []QueryEntry {
	out := make([]QueryEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

func (s *Store) notify(snap []QueryEntry) {
	s.mu.RLock()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.RUnlock()

	for _, o := range obs {
		o(snap)
	}
}
