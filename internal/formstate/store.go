// Package formstate binds the form engine to a form-state container.
//
// A Store is the seam to whatever holds the value bag: it hands out
// snapshots, sets one field at a time, and tells subscribers about every
// change. MemoryStore is the in-process implementation used by sessions and
// tests. Form drives resolution, rendering, validation and array operations
// against a Store.
package formstate

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
)

// Change describes one mutation of the value bag. Values is the snapshot
// after the change.
type Change struct {
	Path   string
	Value  any
	Values map[string]any
}

// Subscriber reacts to value bag changes. Implementations must not call back
// into the Store that notified them.
type Subscriber interface {
	HandleChange(c Change) error
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(c Change) error

func (f SubscriberFunc) HandleChange(c Change) error {
	return f(c)
}

// Store is a form-state container.
type Store interface {
	// Snapshot returns the current value bag. Callers must treat it as
	// immutable.
	Snapshot() map[string]any
	// Set stores value at the dotted path.
	Set(path string, value any)
	// Subscribe registers a named subscriber and returns a function that
	// removes it.
	Subscribe(name string, s Subscriber) (unsubscribe func())
}

// MemoryStore is a Store over an in-memory value bag. Every Set swaps in a
// new bag, so snapshots handed out earlier never change.
type MemoryStore struct {
	mu          sync.RWMutex
	values      map[string]any
	subscribers []namedSubscriber
	nextID      int
}

type namedSubscriber struct {
	id   int
	name string
	sub  Subscriber
}

// NewMemoryStore creates a store holding a copy of values.
func NewMemoryStore(values map[string]any) *MemoryStore {
	if values == nil {
		values = map[string]any{}
	}
	return &MemoryStore{values: formvalue.CloneBag(values)}
}

func (s *MemoryStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

func (s *MemoryStore) Set(path string, value any) {
	s.mu.Lock()
	s.values = formvalue.Set(s.values, path, value)
	snap := s.values
	subs := s.subscribers
	s.mu.Unlock()

	s.dispatch(subs, Change{Path: path, Value: value, Values: snap})
}

// Replace swaps the whole bag. Subscribers see a change with an empty path.
func (s *MemoryStore) Replace(values map[string]any) {
	if values == nil {
		values = map[string]any{}
	}
	s.mu.Lock()
	s.values = formvalue.CloneBag(values)
	snap := s.values
	subs := s.subscribers
	s.mu.Unlock()

	s.dispatch(subs, Change{Values: snap})
}

func (s *MemoryStore) Subscribe(name string, sub Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, namedSubscriber{id: id, name: name, sub: sub})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, ns := range s.subscribers {
			if ns.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *MemoryStore) dispatch(subs []namedSubscriber, c Change) {
	for _, ns := range subs {
		if err := ns.sub.HandleChange(c); err != nil {
			log.Warn().Str("component", "formstate").Str("subscriber", ns.name).Str("path", c.Path).Err(err).Msg("subscriber failed")
		}
	}
}
