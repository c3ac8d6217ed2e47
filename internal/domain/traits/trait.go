// Package traits implements the observable, type-indexed property model
// that assets compose and scripts read and write through the bridge.
package traits

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Built-in trait names.
const (
	NamePosition     = "position"
	NameRotation     = "rotation"
	NameScale        = "scale"
	NameVisibility   = "visibility"
	NameTint         = "tint"
	NameInteractable = "interactable"
)

// ErrTypeMismatch is returned when a value cannot be converted to a trait's value type.
var ErrTypeMismatch = errors.New("trait value type mismatch")

// Change describes a trait value change.
type Change struct {
	Trait string
	Old   any
	New   any
}

// Trait is a named, typed, observable property container.
type Trait interface {
	Name() string
	ValueType() reflect.Type
	Value() any
	SetValue(v any) error
	Subscribe(fn func(Change)) (unsubscribe func())
}

// Detacher is implemented by traits that release subscribers when removed from a set.
type Detacher interface {
	Detach()
}

// Property is the generic building block for concrete traits.
// Concrete traits embed it so that each trait is a distinct Go type.
type Property[T any] struct {
	mu     sync.RWMutex
	name   string
	value  T
	coerce func(any) (T, error)
	subs   map[int]func(Change)
	nextID int
}

func (p *Property[T]) init(name string, v T, coerce func(any) (T, error)) {
	p.name = name
	p.value = v
	p.coerce = coerce
}

// Name returns the trait name
func (p *Property[T]) Name() string {
	return p.name
}

// ValueType returns the declared value type
func (p *Property[T]) ValueType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get returns the typed value
func (p *Property[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and notifies subscribers.
func (p *Property[T]) Set(v T) {
	p.mu.Lock()
	old := p.value
	p.value = v
	subs := p.snapshot()
	p.mu.Unlock()

	change := Change{Trait: p.name, Old: old, New: v}
	for _, fn := range subs {
		fn(change)
	}
}

// Value returns the value as any
func (p *Property[T]) Value() any {
	return p.Get()
}

// SetValue converts v to the declared type and stores it.
func (p *Property[T]) SetValue(v any) error {
	if typed, ok := v.(T); ok {
		p.Set(typed)
		return nil
	}
	if p.coerce == nil {
		return fmt.Errorf("%w: %s wants %s, got %T", ErrTypeMismatch, p.name, p.ValueType(), v)
	}
	typed, err := p.coerce(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTypeMismatch, p.name, err)
	}
	p.Set(typed)
	return nil
}

// Subscribe registers fn for value changes.
func (p *Property[T]) Subscribe(fn func(Change)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs == nil {
		p.subs = make(map[int]func(Change))
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Detach drops every subscriber.
func (p *Property[T]) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = nil
}

// Subscribers returns the current subscriber count.
func (p *Property[T]) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// snapshot must be called with p.mu held.
func (p *Property[T]) snapshot() []func(Change) {
	if len(p.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	// Notify in subscription order.
	slices.Sort(ids)
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, p.subs[id])
	}
	return out
}
