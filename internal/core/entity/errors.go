package entity

import "errors"

var (
	// ErrNotFound reports a handle whose slot holds no live entity.
	ErrNotFound = errors.New("entity not found")
	// ErrStaleHandle reports a handle whose generation no longer matches
	// its slot; the entity it referred to has been destroyed.
	ErrStaleHandle = errors.New("stale entity handle")
	// ErrWouldCycle reports a hierarchy edit that would make an entity its
	// own ancestor.
	ErrWouldCycle = errors.New("hierarchy edit would create a cycle")
)
