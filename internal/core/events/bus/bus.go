// Package bus decouples systems from each other through typed events.
// Publishing enqueues; nothing is delivered until Drain runs, which the
// scheduler drives as an ordinary system so the bus's position in the
// dependency graph is explicit.
package bus

import (
	"errors"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/tickforge/tickforge/pkg/generic"
)

// Subscription identifies one registered handler and can cancel it.
type Subscription interface {
	ID() string
	EventType() reflect.Type
	IsActive() bool
	Cancel()
}

type subscription struct {
	id        string
	eventType reflect.Type
	handler   func(any) error
	active    bool
	cancel    func()
}

func (s *subscription) ID() string              { return s.id }
func (s *subscription) EventType() reflect.Type { return s.eventType }
func (s *subscription) IsActive() bool          { return s.active }
func (s *subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

type queued struct {
	eventType reflect.Type
	event     any
}

// Bus is a thread-safe queued event bus. Events are dispatched strictly in
// publish order, each to every handler registered for its concrete type.
type Bus struct {
	mu       sync.Mutex
	handlers map[reflect.Type][]*subscription
	queue    []queued
	scratch  *generic.Pool[[]queued]
}

func New() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]*subscription),
		scratch: generic.NewHotPool(func() []queued {
			return make([]queued, 0, 64)
		}, 2),
	}
}

// Publish enqueues an event for the next Drain.
func Publish[E any](b *Bus, event E) {
	b.mu.Lock()
	b.queue = append(b.queue, queued{eventType: reflect.TypeFor[E](), event: event})
	b.mu.Unlock()
}

// Subscribe registers a handler for events of type E. Handlers for one type
// run in subscription order.
func Subscribe[E any](b *Bus, handler func(E) error) Subscription {
	t := reflect.TypeFor[E]()
	s := &subscription{
		id:        uuid.NewString(),
		eventType: t,
		active:    true,
		handler: func(v any) error {
			return handler(v.(E))
		},
	}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[t]
		for i, sub := range subs {
			if sub.id == s.id {
				b.handlers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.active = false
	}

	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], s)
	b.mu.Unlock()
	return s
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Drain delivers every queued event in publish order. Events published by
// handlers during the drain are delivered in the same pass. Handler errors
// are collected with errors.Join and do not stop delivery.
func (b *Bus) Drain() error {
	var all error
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return all
		}
		batch := b.queue
		b.queue = b.scratch.Get()[:0]
		b.mu.Unlock()

		for _, q := range batch {
			b.mu.Lock()
			subs := append([]*subscription(nil), b.handlers[q.eventType]...)
			b.mu.Unlock()
			for _, s := range subs {
				if !s.active {
					continue
				}
				if err := s.handler(q.event); err != nil {
					all = errors.Join(all, err)
				}
			}
		}
		b.scratch.Put(batch[:0])
	}
}
