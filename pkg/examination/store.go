package examination

import (
	"slices"
	"sync"
)

// Observer receives the record installed by each Update or Reset.
type Observer func(Record)

// Store owns the current Record of one editing session and is its only
// mutation surface.
type Store struct {
	mu        sync.RWMutex
	record    Record
	initial   Record
	observers map[int]Observer
	nextID    int
}

// NewStore returns a store holding a copy of initial, or NewRecord() when
// initial is nil. The same shape is reinstalled by Reset without arguments.
func NewStore(initial Record) *Store {
	if initial == nil {
		initial = NewRecord()
	}
	return &Store{
		record:    initial.Clone(),
		initial:   initial.Clone(),
		observers: make(map[int]Observer),
	}
}

// Read returns the value at p in the current record.
func (s *Store) Read(p Path) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Get(s.record, p)
}

// Update replaces the value at p and notifies observers.
func (s *Store) Update(p Path, value any) {
	s.mu.Lock()
	s.record = Set(s.record, p, value)
	current := s.record
	observers := s.observerList()
	s.mu.Unlock()
	notify(observers, current)
}

// FieldUpdate is one assignment applied by UpdateMany.
type FieldUpdate struct {
	Path  Path
	Value any
}

// UpdateMany applies updates in order as a single change; observers are
// notified once with the final record.
func (s *Store) UpdateMany(updates ...FieldUpdate) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	next := s.record
	for _, u := range updates {
		next = Set(next, u.Path, u.Value)
	}
	s.record = next
	observers := s.observerList()
	s.mu.Unlock()
	notify(observers, next)
}

// Reset installs a copy of the provided shape, or of the store's initial
// shape when none is given, and notifies observers.
func (s *Store) Reset(initial ...Record) {
	s.mu.Lock()
	shape := s.initial
	if len(initial) > 0 && initial[0] != nil {
		shape = initial[0]
	}
	s.record = shape.Clone()
	current := s.record
	observers := s.observerList()
	s.mu.Unlock()
	notify(observers, current)
}

// Snapshot returns the current record. Records are never mutated in place,
// so the returned value stays valid after later updates; callers must not
// modify it.
func (s *Store) Snapshot() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) observerList() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.observers[id])
	}
	return out
}

func notify(observers []Observer, r Record) {
	for _, fn := range observers {
		fn(r)
	}
}
