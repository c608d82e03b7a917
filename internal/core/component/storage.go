// Package component provides dense per-type storage of component values.
//
// Each Storage keeps its values in a dense array paired with two index
// maps, entity to slot and slot to entity. Removal swaps the last value
// into the vacated slot, so the array never holds holes: lookup, insert
// and remove are all O(1) amortized and iteration touches live values
// only, at the cost of not preserving iteration order across removals.
package component

import (
	"reflect"

	"github.com/tickforge/tickforge/internal/core/entity"
)

// Storage holds at most one value of type T per entity.
type Storage[T any] struct {
	data         []T
	slotToEntity []entity.ID
	entityToSlot map[entity.ID]int
}

var _ entity.ComponentStore = (*Storage[int])(nil)

func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{
		entityToSlot: make(map[entity.ID]int),
	}
}

// For returns the storage for T attached to the entity store, creating and
// attaching one on first use.
func For[T any](s *entity.Store) *Storage[T] {
	t := reflect.TypeFor[T]()
	if cs, ok := s.StorageOf(t); ok {
		return cs.(*Storage[T])
	}
	st := NewStorage[T]()
	s.AttachStorage(st)
	return st
}

// TypeOf is a shorthand for the reflect.Type of a component, as passed to
// Store.Query.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Insert sets the entity's value, overwriting in place if one exists and
// appending a new dense slot otherwise.
func (s *Storage[T]) Insert(id entity.ID, value T) {
	if slot, ok := s.entityToSlot[id]; ok {
		s.data[slot] = value
		return
	}
	slot := len(s.data)
	s.data = append(s.data, value)
	s.slotToEntity = append(s.slotToEntity, id)
	s.entityToSlot[id] = slot
}

// Remove deletes the entity's value by swap-remove: the last value moves
// into the vacated slot and both index maps are fixed up for the mover.
// Removing an absent value reports false and mutates nothing.
func (s *Storage[T]) Remove(id entity.ID) bool {
	slot, ok := s.entityToSlot[id]
	if !ok {
		return false
	}
	last := len(s.data) - 1
	if slot != last {
		s.data[slot] = s.data[last]
		moved := s.slotToEntity[last]
		s.slotToEntity[slot] = moved
		s.entityToSlot[moved] = slot
	}
	var zero T
	s.data[last] = zero
	s.data = s.data[:last]
	s.slotToEntity = s.slotToEntity[:last]
	delete(s.entityToSlot, id)
	return true
}

// Get returns a copy of the entity's value.
func (s *Storage[T]) Get(id entity.ID) (T, bool) {
	if slot, ok := s.entityToSlot[id]; ok {
		return s.data[slot], true
	}
	var zero T
	return zero, false
}

// GetMut returns a pointer to the entity's value. The pointer is valid
// until the next Insert or Remove on this storage.
func (s *Storage[T]) GetMut(id entity.ID) (*T, bool) {
	if slot, ok := s.entityToSlot[id]; ok {
		return &s.data[slot], true
	}
	return nil, false
}

// Each visits every (entity, value) pair in dense order until fn returns
// false. The visited pointers obey the same validity rule as GetMut.
func (s *Storage[T]) Each(fn func(entity.ID, *T) bool) {
	for slot := range s.data {
		if !fn(s.slotToEntity[slot], &s.data[slot]) {
			return
		}
	}
}

func (s *Storage[T]) Len() int {
	return len(s.data)
}

// Contains reports whether the entity holds a value of this type.
func (s *Storage[T]) Contains(id entity.ID) bool {
	_, ok := s.entityToSlot[id]
	return ok
}

// Discard removes the entity's value, reporting whether one existed. It is
// the type-erased form of Remove used by the entity store on destroy.
func (s *Storage[T]) Discard(id entity.ID) bool {
	return s.Remove(id)
}

// Entities returns the slot-ordered owner list. The slice is live; callers
// must not mutate it.
func (s *Storage[T]) Entities() []entity.ID {
	return s.slotToEntity
}

// ComponentType returns the reflect.Type of T.
func (s *Storage[T]) ComponentType() reflect.Type {
	return reflect.TypeFor[T]()
}
