package traits

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ErrDuplicateTrait is returned when a trait with the same type or name is already present.
var ErrDuplicateTrait = errors.New("duplicate trait")

// SetEventKind distinguishes set membership notifications.
type SetEventKind int

const (
	// TraitAdded fires after a trait joined the set
	TraitAdded SetEventKind = iota
	// TraitRemoved fires after a trait left the set
	TraitRemoved
)

// SetEvent is delivered to set observers.
type SetEvent struct {
	Kind  SetEventKind
	Trait Trait
}

// Set is an insertion-ordered collection of traits indexed by Go type and by name.
type Set struct {
	mu        sync.RWMutex
	order     []Trait
	byType    map[reflect.Type]Trait
	byName    map[string]Trait
	observers map[int]func(SetEvent)
	nextID    int
}

// NewSet creates an empty trait set
func NewSet() *Set {
	return &Set{
		byType: make(map[reflect.Type]Trait),
		byName: make(map[string]Trait),
	}
}

// Add appends t. Built-in traits are unique per type; every trait is unique per name.
func (s *Set) Add(t Trait) error {
	if t == nil {
		return fmt.Errorf("nil trait")
	}
	s.mu.Lock()
	if _, ok := s.byName[t.Name()]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: name %q", ErrDuplicateTrait, t.Name())
	}
	rt := reflect.TypeOf(t)
	indexed := !isCustom(t)
	if indexed {
		if _, ok := s.byType[rt]; ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: type %s", ErrDuplicateTrait, rt)
		}
		s.byType[rt] = t
	}
	s.byName[t.Name()] = t
	s.order = append(s.order, t)
	obs := s.observerSnapshot()
	s.mu.Unlock()

	for _, fn := range obs {
		fn(SetEvent{Kind: TraitAdded, Trait: t})
	}
	return nil
}

// Remove detaches and removes the trait with the given name.
func (s *Set) Remove(name string) (Trait, bool) {
	s.mu.Lock()
	t, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	delete(s.byName, name)
	if !isCustom(t) {
		delete(s.byType, reflect.TypeOf(t))
	}
	s.order = slices.DeleteFunc(s.order, func(x Trait) bool { return x == t })
	obs := s.observerSnapshot()
	s.mu.Unlock()

	for _, fn := range obs {
		fn(SetEvent{Kind: TraitRemoved, Trait: t})
	}
	if d, ok := t.(Detacher); ok {
		d.Detach()
	}
	return t, true
}

// DetachAll removes every trait in reverse insertion order, firing removal events.
func (s *Set) DetachAll() {
	names := s.Names()
	for i := len(names) - 1; i >= 0; i-- {
		s.Remove(names[i])
	}
	s.mu.Lock()
	s.observers = nil
	s.mu.Unlock()
}

// ByName looks a trait up by name.
func (s *Set) ByName(name string) (Trait, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byName[name]
	return t, ok
}

// Has reports whether a trait with the given name exists.
func (s *Set) Has(name string) bool {
	_, ok := s.ByName(name)
	return ok
}

// All returns the traits in insertion order.
func (s *Set) All() []Trait {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Names returns trait names in insertion order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.order))
	for i, t := range s.order {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of traits.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Observe registers fn for membership changes.
func (s *Set) Observe(fn func(SetEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]func(SetEvent))
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Set) observerSnapshot() []func(SetEvent) {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(SetEvent), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.observers[id])
	}
	return out
}

// Get returns the trait of concrete type T, e.g. Get[*Position](set).
func Get[T Trait](s *Set) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byType[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	typed, ok := t.(T)
	return typed, ok
}

// OfType returns every trait assignable to T in insertion order.
func OfType[T Trait](s *Set) []T {
	if s == nil {
		return nil
	}
	var out []T
	for _, t := range s.All() {
		if typed, ok := t.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func isCustom(t Trait) bool {
	_, ok := t.(*Custom)
	return ok
}
