// Package resource holds singleton values shared across systems, keyed by
// their Go type. At most one value per type exists at a time. The registry
// is an explicit object threaded through every system call, never a
// package-level singleton, so multiple worlds and tests can coexist.
package resource

import "reflect"

// Registry stores one value per type. Values are held by pointer so every
// reader and writer observes the same instance.
type Registry struct {
	items map[reflect.Type]any
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[reflect.Type]any)}
}

// Len returns the number of stored resources.
func (r *Registry) Len() int {
	return len(r.items)
}

// get returns the raw stored pointer for a type.
func (r *Registry) get(t reflect.Type) (any, bool) {
	v, ok := r.items[t]
	return v, ok
}

// Insert stores the resource, replacing any existing value of the same type.
func Insert[T any](r *Registry, value *T) {
	r.items[reflect.TypeFor[T]()] = value
}

// Get returns the resource of type T, or false if absent.
func Get[T any](r *Registry) (*T, bool) {
	if v, ok := r.items[reflect.TypeFor[T]()]; ok {
		return v.(*T), true
	}
	return nil, false
}

// Lookup is Get with a typed error for callers that propagate outcomes.
func Lookup[T any](r *Registry) (*T, error) {
	t := reflect.TypeFor[T]()
	if v, ok := r.items[t]; ok {
		return v.(*T), nil
	}
	return nil, &NotFoundError{Type: t}
}

// Has reports whether a resource of type T is present.
func Has[T any](r *Registry) bool {
	_, ok := r.items[reflect.TypeFor[T]()]
	return ok
}

// Remove deletes and returns the resource of type T.
func Remove[T any](r *Registry) (*T, bool) {
	t := reflect.TypeFor[T]()
	if v, ok := r.items[t]; ok {
		delete(r.items, t)
		return v.(*T), true
	}
	return nil, false
}
