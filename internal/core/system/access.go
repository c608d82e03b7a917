package system

import "reflect"

// Accessor is the optional declaration of the resource and component types
// a system touches. The scheduler runs two same-wave systems concurrently
// only when both declare access sets and those sets do not conflict: no
// two writers of one type, and no writer overlapping a reader. A system
// that does not implement Accessor is treated as touching everything and
// runs sequentially.
type Accessor interface {
	Reads() []reflect.Type
	Writes() []reflect.Type
}

// declared is the decorator returned by WithAccess.
type declared struct {
	System
	reads  []reflect.Type
	writes []reflect.Type
}

func (d *declared) Reads() []reflect.Type  { return d.reads }
func (d *declared) Writes() []reflect.Type { return d.writes }

// WithAccess attaches a static access declaration to a system, opting it
// into wave-parallel execution.
func WithAccess(sys System, reads, writes []reflect.Type) System {
	return &declared{System: sys, reads: reads, writes: writes}
}

// accessSet accumulates the combined declared access of a parallel batch.
type accessSet struct {
	reads  map[reflect.Type]struct{}
	writes map[reflect.Type]struct{}
}

func newAccessSet() *accessSet {
	return &accessSet{
		reads:  make(map[reflect.Type]struct{}),
		writes: make(map[reflect.Type]struct{}),
	}
}

func (a *accessSet) conflicts(acc Accessor) bool {
	for _, t := range acc.Writes() {
		if _, ok := a.writes[t]; ok {
			return true
		}
		if _, ok := a.reads[t]; ok {
			return true
		}
	}
	for _, t := range acc.Reads() {
		if _, ok := a.writes[t]; ok {
			return true
		}
	}
	return false
}

func (a *accessSet) add(acc Accessor) {
	for _, t := range acc.Reads() {
		a.reads[t] = struct{}{}
	}
	for _, t := range acc.Writes() {
		a.writes[t] = struct{}{}
	}
}

func (a *accessSet) reset() {
	clear(a.reads)
	clear(a.writes)
}
