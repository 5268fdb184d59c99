package kumi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestEvent struct {
	Value int
}

type otherEvent struct {
	Name string
}

func TestEventBusSubscribeAndPublish(t *testing.T) {
	bus := &EventBus{}
	received := 0
	Subscribe(bus, func(e TestEvent) {
		received += e.Value
	})
	Subscribe(bus, func(e TestEvent) {
		received += e.Value * 2
	})
	Publish(bus, TestEvent{Value: 1})
	assert.Equal(t, 3, received)
	Publish(bus, TestEvent{Value: 2})
	assert.Equal(t, 9, received)
}

func TestEventBusMultipleTypes(t *testing.T) {
	bus := &EventBus{}
	var ints int
	var names []string
	Subscribe(bus, func(e TestEvent) { ints += e.Value })
	Subscribe(bus, func(e otherEvent) { names = append(names, e.Name) })

	Publish(bus, TestEvent{Value: 42})
	Publish(bus, otherEvent{Name: "a"})

	assert.Equal(t, 42, ints)
	assert.Equal(t, []string{"a"}, names)
	assert.True(t, HasSubscribers[otherEvent](bus))
	assert.False(t, HasSubscribers[EntityRemoved](bus))
}

func TestEventBusNoHandlers(t *testing.T) {
	bus := &EventBus{}
	assert.NotPanics(t, func() { Publish(bus, TestEvent{Value: 42}) })
}

func TestWorldPublishesEvents(t *testing.T) {
	bus := &EventBus{}
	var created []ArchetypeCreated
	var removed []Entity
	Subscribe(bus, func(e ArchetypeCreated) { created = append(created, e) })
	Subscribe(bus, func(e EntityRemoved) { removed = append(removed, e.Entity) })

	w := NewWorld(WithEventBus(bus))
	posID := Register[evPosition](w)
	ents := w.Extend(Values(evPosition{1}, evPosition{2}))
	w.Extend(Values(evPosition{3}))

	require.Len(t, created, 1)
	assert.Equal(t, ArchetypeIndex(1), created[0].Index)
	assert.Equal(t, []ComponentID{posID}, created[0].Layout.IDs())

	require.True(t, w.RemoveEntity(ents[0]))
	require.False(t, w.RemoveEntity(ents[0]))
	assert.Equal(t, []Entity{ents[0]}, removed)
	assert.Same(t, bus, w.Events())
}

func TestClearEntitiesPublishesRemovals(t *testing.T) {
	bus := &EventBus{}
	w := NewWorld(WithEventBus(bus))
	Register[evPosition](w)
	ents := w.Extend(Values(evPosition{1}, evPosition{2}))
	ents = append(ents, w.CreateEntity())

	var removed []Entity
	Subscribe(bus, func(e EntityRemoved) {
		assert.False(t, w.IsValid(e.Entity))
		assert.Zero(t, w.Len())
		removed = append(removed, e.Entity)
	})
	w.ClearEntities()
	assert.ElementsMatch(t, ents, removed)

	removed = removed[:0]
	more := w.Extend(Values(evPosition{3}))
	w.Close()
	assert.Equal(t, more, removed)
}

type evPosition struct{ X int }
