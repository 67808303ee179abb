package engine

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/sync/singleflight"
)

// Store caches loaded tables by source key. Entries are read-only once
// stored; concurrent requests for the same key share one load, and failed
// loads are not cached so the next request re-reads.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
	group  singleflight.Group
	loads  int
}

func NewStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Get returns the cached table for key, calling load on a miss.
func (s *Store) Get(key string, load func() (*Table, error)) (*Table, error) {
	s.mu.RLock()
	t, ok := s.tables[key]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.RLock()
		t, ok := s.tables[key]
		s.mu.RUnlock()
		if ok {
			return t, nil
		}

		t, err := load()
		s.mu.Lock()
		s.loads++
		if err == nil {
			s.tables[key] = t
		}
		s.mu.Unlock()
		return t, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Loads counts the load calls made so far, failed ones included.
func (s *Store) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// Keys lists the cached keys.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Keys(s.tables)
}
