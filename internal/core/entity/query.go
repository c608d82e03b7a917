package entity

import (
	"reflect"

	"github.com/tickforge/tickforge/pkg/sequence"
)

// Query returns a lazy, restartable iterator over every live entity holding
// all of the listed component types. Component values are fetched per entity
// through the storage accessors, so no two callers ever share a mutable
// view of the same slot. Entities created or destroyed while iterating are
// not guaranteed to appear.
func (s *Store) Query(types ...reflect.Type) *sequence.Iterator[ID] {
	return sequence.Of(func(yield func(ID) bool) {
		if len(types) == 0 {
			return
		}
		// Drive iteration from the smallest storage; membership in the
		// rest is an O(1) map probe each.
		var pivot ComponentStore
		rest := make([]ComponentStore, 0, len(types)-1)
		for _, t := range types {
			cs, ok := s.stores[t]
			if !ok {
				return
			}
			if pivot == nil || cs.Len() < pivot.Len() {
				if pivot != nil {
					rest = append(rest, pivot)
				}
				pivot = cs
			} else {
				rest = append(rest, cs)
			}
		}

		for _, id := range pivot.Entities() {
			if !s.Alive(id) {
				continue
			}
			match := true
			for _, cs := range rest {
				if !cs.Contains(id) {
					match = false
					break
				}
			}
			if match && !yield(id) {
				return
			}
		}
	})
}

// All returns a lazy iterator over every live entity.
func (s *Store) All() *sequence.Iterator[ID] {
	return sequence.Of(func(yield func(ID) bool) {
		for idx := range s.alive {
			if !s.alive[idx] {
				continue
			}
			if !yield(ID{Index: uint32(idx), Generation: s.generations[idx]}) {
				return
			}
		}
	})
}
