package traits

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// Position is the asset's world position.
type Position struct{ Property[values.Vector3] }

// Rotation is the asset's Euler rotation in degrees.
type Rotation struct{ Property[values.Vector3] }

// Scale is the asset's local scale.
type Scale struct{ Property[values.Vector3] }

// Visibility toggles whether the asset is shown.
type Visibility struct{ Property[bool] }

// Tint is the asset's material color.
type Tint struct{ Property[values.Color] }

// NewPosition creates a position trait
func NewPosition(v values.Vector3) *Position {
	t := &Position{}
	t.init(NamePosition, v, values.Vector3FromAny)
	return t
}

// NewRotation creates a rotation trait
func NewRotation(v values.Vector3) *Rotation {
	t := &Rotation{}
	t.init(NameRotation, v, values.Vector3FromAny)
	return t
}

// NewScale creates a scale trait
func NewScale(v values.Vector3) *Scale {
	t := &Scale{}
	t.init(NameScale, v, values.Vector3FromAny)
	return t
}

// NewVisibility creates a visibility trait
func NewVisibility(visible bool) *Visibility {
	t := &Visibility{}
	t.init(NameVisibility, visible, nil)
	return t
}

// NewTint creates a tint trait
func NewTint(c values.Color) *Tint {
	t := &Tint{}
	t.init(NameTint, c, values.ColorFromAny)
	return t
}

// Interactable lets the outside world poke an asset with named events.
// Its value is the enabled flag; listeners receive every fired event.
type Interactable struct {
	Property[bool]

	lmu       sync.RWMutex
	events    []string
	listeners map[int]func(name string, data any)
	nextID    int
}

// NewInteractable creates an enabled interactable that accepts the given
// event names. An empty list accepts any name.
func NewInteractable(events ...string) *Interactable {
	t := &Interactable{events: events}
	t.init(NameInteractable, true, nil)
	return t
}

// Events returns the accepted event names.
func (i *Interactable) Events() []string {
	return slices.Clone(i.events)
}

// Listen registers fn for fired events.
func (i *Interactable) Listen(fn func(name string, data any)) func() {
	i.lmu.Lock()
	defer i.lmu.Unlock()
	if i.listeners == nil {
		i.listeners = make(map[int]func(string, any))
	}
	id := i.nextID
	i.nextID++
	i.listeners[id] = fn
	return func() {
		i.lmu.Lock()
		defer i.lmu.Unlock()
		delete(i.listeners, id)
	}
}

// Fire delivers a named event to every listener.
func (i *Interactable) Fire(name string, data any) error {
	if !i.Get() {
		return fmt.Errorf("interactable is disabled")
	}
	if len(i.events) > 0 && !slices.Contains(i.events, name) {
		return fmt.Errorf("interactable does not accept event %q", name)
	}

	i.lmu.RLock()
	ids := make([]int, 0, len(i.listeners))
	for id := range i.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(string, any), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, i.listeners[id])
	}
	i.lmu.RUnlock()

	for _, fn := range fns {
		fn(name, data)
	}
	return nil
}

// Listeners returns the current listener count.
func (i *Interactable) Listeners() int {
	i.lmu.RLock()
	defer i.lmu.RUnlock()
	return len(i.listeners)
}

// Detach drops value subscribers and event listeners.
func (i *Interactable) Detach() {
	i.Property.Detach()
	i.lmu.Lock()
	i.listeners = nil
	i.lmu.Unlock()
}

// Custom is a dynamically named trait holding any value. Scripts create
// these with addTrait; they are indexed by name only.
type Custom struct{ Property[any] }

// NewCustom creates a custom trait
func NewCustom(name string, v any) *Custom {
	t := &Custom{}
	t.init(name, v, func(x any) (any, error) { return x, nil })
	return t
}

// ValueType returns the dynamic type of the current value, or the empty
// interface type when unset.
func (c *Custom) ValueType() reflect.Type {
	if v := c.Get(); v != nil {
		return reflect.TypeOf(v)
	}
	return c.Property.ValueType()
}

// FromValue builds a trait from a name and a loosely typed value, as found
// in metadata or passed by scripts. Built-in names produce built-in traits.
func FromValue(name string, raw any) (Trait, error) {
	switch name {
	case NamePosition, NameRotation, NameScale:
		v := values.Vector3{}
		if name == NameScale {
			v = values.One
		}
		if raw != nil {
			var err error
			if v, err = values.Vector3FromAny(raw); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, name, err)
			}
		}
		switch name {
		case NamePosition:
			return NewPosition(v), nil
		case NameRotation:
			return NewRotation(v), nil
		default:
			return NewScale(v), nil
		}
	case NameVisibility:
		visible := true
		if raw != nil {
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s wants bool, got %T", ErrTypeMismatch, name, raw)
			}
			visible = b
		}
		return NewVisibility(visible), nil
	case NameTint:
		c := values.White
		if raw != nil {
			var err error
			if c, err = values.ColorFromAny(raw); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, name, err)
			}
		}
		return NewTint(c), nil
	case NameInteractable:
		var events []string
		switch t := raw.(type) {
		case nil, bool:
		case []any:
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s events must be strings", ErrTypeMismatch, name)
				}
				events = append(events, s)
			}
		case []string:
			events = t
		default:
			return nil, fmt.Errorf("%w: %s wants a list of event names, got %T", ErrTypeMismatch, name, raw)
		}
		it := NewInteractable(events...)
		if b, ok := raw.(bool); ok {
			it.Set(b)
		}
		return it, nil
	default:
		if name == "" {
			return nil, fmt.Errorf("trait name is required")
		}
		return NewCustom(name, raw), nil
	}
}
