// Package dataset holds the dashboard's current in-memory dataset.
// Sessions read a snapshot; uploads and refreshes swap it atomically.
package dataset

import (
	"sync"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

type Store struct {
	mu      sync.RWMutex
	current core.Dataset
	swaps   int64
}

// NewStore creates a store primed with an initial dataset (demo data or
// a restored snapshot).
func NewStore(initial core.Dataset) *Store {
	return &Store{current: initial}
}

// Current returns the active dataset. Record slices are shared and must
// be treated as read-only; every swap replaces them wholesale.
func (s *Store) Current() core.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Swap replaces the active dataset and returns the generation number of
// the new dataset. Generation 0 is the initial dataset.
func (s *Store) Swap(ds core.Dataset) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ds
	s.swaps++
	return s.swaps
}

// Generation returns the current swap count. Report caches key on it so
// a swap invalidates every cached range at once.
func (s *Store) Generation() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.swaps
}

// Source reports which adapter produced the active dataset.
func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Source
}
