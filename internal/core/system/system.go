// Package system defines the per-tick unit of work and the scheduler that
// drives all of them: dependency resolution, wave-based execution, rate
// control and lifecycle.
package system

import (
	"github.com/tickforge/tickforge/internal/core/entity"
	"github.com/tickforge/tickforge/internal/core/events/bus"
	"github.com/tickforge/tickforge/internal/core/observability/log"
	"github.com/tickforge/tickforge/internal/core/resource"
)

// World is the state a system operates on each tick. It is satisfied by
// world.World and threaded explicitly through every lifecycle call; there
// is no package-level world.
type World interface {
	Entities() *entity.Store
	Resources() *resource.Registry
	Events() *bus.Bus
	Log() log.Log
}

// System is one named unit of per-tick logic.
//
// Lifecycle: constructed, registered, initialized once in dependency order,
// then updated across many ticks while active, then shut down once in
// reverse dependency order.
type System interface {
	// Name must be unique across the scheduler.
	Name() string
	// Priority orders systems with no dependency constraint between them;
	// lower runs earlier.
	Priority() int
	// Dependencies names systems that must run before this one each tick.
	Dependencies() []string

	IsActive() bool
	SetActive(bool)

	// IsRunnable is checked right before the system's slot each tick; a
	// false result skips the slot for that tick only.
	IsRunnable(World) bool

	Init(World) error
	Update(World, float64) error
	Shutdown(World) error
}

// Base supplies the boilerplate part of System. Embed it and implement
// Update.
type Base struct {
	name     string
	priority int
	deps     []string
	inactive bool
}

func NewBase(name string, priority int, deps ...string) Base {
	return Base{name: name, priority: priority, deps: deps}
}

func (b *Base) Name() string           { return b.name }
func (b *Base) Priority() int          { return b.priority }
func (b *Base) Dependencies() []string { return b.deps }
func (b *Base) IsActive() bool         { return !b.inactive }
func (b *Base) SetActive(active bool)  { b.inactive = !active }
func (b *Base) IsRunnable(World) bool  { return true }
func (b *Base) Init(World) error       { return nil }
func (b *Base) Shutdown(World) error   { return nil }

// Func adapts a plain function to a System.
type Func struct {
	Base
	fn func(World, float64) error
}

func NewFunc(name string, priority int, fn func(World, float64) error, deps ...string) *Func {
	return &Func{Base: NewBase(name, priority, deps...), fn: fn}
}

func (f *Func) Update(w World, dt float64) error {
	return f.fn(w, dt)
}

// NewEventPump returns the system that drains the event bus. Registering
// it like any other system makes the bus's position in the dependency
// graph explicit.
func NewEventPump(priority int, deps ...string) System {
	return NewFunc("events", priority, func(w World, _ float64) error {
		return w.Events().Drain()
	}, deps...)
}
