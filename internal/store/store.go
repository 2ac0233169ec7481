// Package store holds the session's logged entries in memory.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Tiliavir/nicolog/internal/model"
)

// Persister durably records entries. storage.Journal implements it.
type Persister interface {
	Append(entry model.Entry) error
	LoadRange(from, to time.Time) ([]model.Entry, error)
}

// History is a Persister that knows its oldest day.
type History interface {
	Persister
	Earliest() (day time.Time, ok bool, err error)
}

// Open returns a Store backed by h and loaded with everything it holds up to now.
func Open(h History, now time.Time) (*Store, error) {
	s := New(h)
	first, ok, err := h.Earliest()
	if err != nil {
		return nil, fmt.Errorf("opening entries: %w", err)
	}
	if !ok {
		return s, nil
	}
	if err := s.Load(first, now); err != nil {
		return nil, err
	}
	return s, nil
}

// Store is an ordered, newest-first collection of entries.
type Store struct {
	mu        sync.RWMutex
	entries   []model.Entry
	persister Persister
}

// New returns an empty Store. p may be nil for a purely in-memory store.
func New(p Persister) *Store {
	return &Store{persister: p}
}

// Load replaces the in-memory collection with the persisted entries in [from, to].
func (s *Store) Load(from, to time.Time) error {
	if s.persister == nil {
		return nil
	}
	entries, err := s.persister.LoadRange(from, to)
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Append inserts entry at the front of the collection. When a persister is
// configured the entry is written there first.
func (s *Store) Append(entry model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == entry.ID {
			return fmt.Errorf("entry %s already exists", entry.ID)
		}
	}
	if s.persister != nil {
		if err := s.persister.Append(entry); err != nil {
			return fmt.Errorf("persisting entry: %w", err)
		}
	}
	s.entries = append([]model.Entry{entry}, s.entries...)
	return nil
}

// All returns a copy of the collection in stored order.
func (s *Store) All() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
