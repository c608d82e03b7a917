// Package world wires the entity store, resource registry and event bus
// into the single state object handed to every system call.
package world

import (
	"github.com/tickforge/tickforge/internal/core/entity"
	"github.com/tickforge/tickforge/internal/core/events/bus"
	"github.com/tickforge/tickforge/internal/core/observability/log"
	"github.com/tickforge/tickforge/internal/core/resource"
	"github.com/tickforge/tickforge/internal/core/resources"
)

// World is the in-memory state of one simulation. Several worlds can
// coexist in a process; nothing here is a package-level singleton.
type World struct {
	entities *entity.Store
	registry *resource.Registry
	events   *bus.Bus
	logger   log.Log
}

// Option configures a World.
type Option func(*World)

// WithLogger replaces the default process logger.
func WithLogger(l log.Log) Option {
	return func(w *World) { w.logger = l }
}

// WithStore replaces the default entity store, for hosts that pre-size or
// disable index recycling.
func WithStore(s *entity.Store) Option {
	return func(w *World) { w.entities = s }
}

// New builds a world with the built-in Time and SimState resources already
// present. Hosts insert their own resource types before starting the
// scheduler.
func New(opts ...Option) *World {
	w := &World{
		registry: resource.NewRegistry(),
		events:   bus.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.entities == nil {
		w.entities = entity.NewStore()
	}
	if w.logger == nil {
		w.logger = log.Provide()
	}

	if !resource.Has[resources.Time](w.registry) {
		resource.Insert(w.registry, resources.NewTime())
	}
	if !resource.Has[resources.SimState](w.registry) {
		resource.Insert(w.registry, resources.NewSimState())
	}
	return w
}

func (w *World) Entities() *entity.Store       { return w.entities }
func (w *World) Resources() *resource.Registry { return w.registry }
func (w *World) Events() *bus.Bus              { return w.events }
func (w *World) Log() log.Log                  { return w.logger }
