package kumi

import (
	"reflect"
	"sync"
)

// ArchetypeCreated is published when a World creates an archetype for a
// layout it has not seen before.
type ArchetypeCreated struct {
	Layout EntityLayout
	Index  ArchetypeIndex
}

// EntityRemoved is published after an entity has been destroyed by
// RemoveEntity, ClearEntities or Close. The handle is already invalid when
// handlers run.
type EntityRemoved struct {
	Entity Entity
}

// EventBus is a small, type-safe publish/subscribe hub. Handlers are keyed by
// the static type of the event and run synchronously in subscription order.
// Publishing an event type nobody listens to costs one map lookup.
type EventBus struct {
	handlers map[reflect.Type][]any
	mu       sync.RWMutex
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	t := reflect.TypeFor[T]()
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.handlers == nil {
		bus.handlers = make(map[reflect.Type][]any)
	}
	bus.handlers[t] = append(bus.handlers[t], handler)
}

// Publish calls every handler subscribed to T with event.
func Publish[T any](bus *EventBus, event T) {
	bus.mu.RLock()
	hs := bus.handlers[reflect.TypeFor[T]()]
	bus.mu.RUnlock()
	for _, h := range hs {
		h.(func(T))(event)
	}
}

// HasSubscribers reports whether any handler listens to T.
func HasSubscribers[T any](bus *EventBus) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.handlers[reflect.TypeFor[T]()]) > 0
}
