// Package typeshape reifies Go runtime types into stable, comparable,
// displayable identities. A Shape is what the rest of the term algebra
// uses instead of a Go reflect.Type directly: it is a valid map key, it
// compares in O(1), and it serializes to a stable string for persistence.
//
// Shapes are constructed only through a Registry so that identity and
// display name never drift apart (core/types.Registry in the teacher
// plays the analogous "single source of truth" role for decorator
// schemas; here the registry owns type identity instead).
package typeshape

import (
	"fmt"
	"reflect"
	"sync"
)

// Shape is an opaque, comparable handle to a host type used somewhere in
// the signature: as a function argument, a function return, or a
// variable's declared type. Two Shapes compare equal iff they were
// produced from the same reflect.Type.
type Shape struct {
	id   int64
	name string
}

// Name returns the human-readable, fully-qualified type name
// (e.g. "[]uint8", "*signature_test.HmacKey").
func (s Shape) Name() string { return s.name }

// IsZero reports whether s is the zero Shape (never produced by a
// Registry; useful as a sentinel for "no shape yet").
func (s Shape) IsZero() bool { return s.id == 0 && s.name == "" }

func (s Shape) String() string { return s.name }

// Registry assigns a process-stable identity to every reflect.Type it is
// asked to describe. Populated lazily: there is no explicit registration
// step, matching spec.md §4.A ("populated lazily by each call to
// 'describe a function'").
type Registry struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]Shape
	byName   map[string]Shape
	nextID   int64
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Shape),
		byName: make(map[string]Shape),
	}
}

// Of returns the Shape for a value's dynamic type, registering it if this
// is the first time the registry has seen that reflect.Type.
func (r *Registry) Of(v any) Shape {
	return r.OfType(reflect.TypeOf(v))
}

// OfType returns the Shape for an explicit reflect.Type.
func (r *Registry) OfType(t reflect.Type) Shape {
	r.mu.RLock()
	if shape, ok := r.byType[t]; ok {
		r.mu.RUnlock()
		return shape
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if shape, ok := r.byType[t]; ok {
		return shape
	}

	r.nextID++
	shape := Shape{id: r.nextID, name: displayName(t)}
	r.byType[t] = shape
	r.byName[shape.name] = shape
	return shape
}

// Lookup resolves a previously-registered Shape by its display name, used
// to rebind type shapes on persistence round-trips (spec.md §6
// Persistence: "type shapes persist as their display name and rebind via
// the type registry").
func (r *Registry) Lookup(name string) (Shape, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shape, ok := r.byName[name]
	return shape, ok
}

// For[T] returns the Shape of the zero value of T without constructing a
// live instance, letting generic call sites (signature.NewVar[T]) ask for
// a type's shape directly.
func For[T any](r *Registry) Shape {
	var zero T
	return r.OfType(reflect.TypeOf(&zero).Elem())
}

func displayName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

var _ fmt.Stringer = Shape{}
