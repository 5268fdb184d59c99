// Package kumi is the storage core of an archetype-based Entity-Component-System.
//
// Entities with the same set of component types share an archetype, which keeps
// one dense column per component type. Queries walk every archetype whose
// layout covers the requested types and hand out typed access to the columns,
// checking at run time that no two live queries alias a column mutably.
package kumi

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Entity represents a unique identifier for an object in the World. It combines
// a 32-bit ID with a 32-bit version so that recycled IDs are not confused with
// the entities that held them before.
type Entity struct {
	// ID is the unique, recyclable identifier for the entity.
	ID uint32
	// Version is a generation counter. It is never reused for the same ID.
	Version uint32
}

// entityMeta holds the location of a live entity. version is 0 while the ID is
// free.
type entityMeta struct {
	archetype ArchetypeIndex
	row       int
	version   uint32
}

// World owns all archetypes and the entity index. A World is not safe for
// concurrent structural mutation; queries may run concurrently as long as
// their borrows do not conflict.
type World struct {
	logger zerolog.Logger
	events *EventBus

	// components is indexed by ComponentID; nil means not registered here.
	components []*componentInfo
	// archetypes[0] is the sentinel and always nil.
	archetypes []*archetype
	byLayout   map[uint64][]ArchetypeIndex

	metas         []entityMeta
	freeIDs       []uint32 // stack of recycled entity IDs
	cfg           Config
	nextEntityVer uint32
	alive         int
}

// NewWorld creates an empty World with only the sentinel archetype. Options
// are applied in order, so a later WithInitialCapacity overrides the capacity
// of an earlier WithConfig.
//
// Without options the World uses DefaultConfig, discards log output and owns a
// private EventBus. An invalid log level in the config is logged and ignored,
// and negative capacities are treated as zero.
//
// Parameters:
//   - opts: Functional options such as WithConfig, WithLogger and WithEventBus.
//
// Returns:
//   - A pointer to the new `World`.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		logger:        zerolog.Nop(),
		cfg:           DefaultConfig(),
		archetypes:    make([]*archetype, 1, 16),
		byLayout:      make(map[uint64][]ArchetypeIndex, 16),
		nextEntityVer: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.events == nil {
		w.events = &EventBus{}
	}
	if lvl, err := w.cfg.level(); err == nil {
		w.logger = w.logger.Level(lvl)
	} else {
		w.logger.Warn().Err(err).Msg("ignoring log level")
	}
	if w.cfg.InitialCapacity < 0 {
		w.cfg.InitialCapacity = 0
	}
	if w.cfg.ColumnCapacity < 0 {
		w.cfg.ColumnCapacity = 0
	}
	w.metas = make([]entityMeta, 0, w.cfg.InitialCapacity)
	w.freeIDs = make([]uint32, 0, w.cfg.InitialCapacity)
	w.expand(w.cfg.InitialCapacity)
	w.logger.Debug().
		Int("initial_capacity", w.cfg.InitialCapacity).
		Bool("checked_borrows", w.cfg.CheckedBorrows).
		Msg("world created")
	return w
}

// Register makes T usable as a component in w and returns its ComponentID.
// Registering the same type again returns the same ID.
func Register[T any](w *World) ComponentID {
	info := registerInfo[T]()
	w.registerInfo(info)
	return info.id
}

func (w *World) registerInfo(info *componentInfo) {
	if int(info.id) >= len(w.components) {
		grown := make([]*componentInfo, int(info.id)+1)
		copy(grown, w.components)
		w.components = grown
	}
	if w.components[info.id] == nil {
		w.components[info.id] = info
		w.logger.Debug().
			Uint32("component_id", uint32(info.id)).
			Str("type", info.String()).
			Msg("component registered")
	}
}

// registered returns the info for id if it is registered with w.
func (w *World) registered(id ComponentID) *componentInfo {
	if id == 0 || int(id) >= len(w.components) {
		return nil
	}
	return w.components[id]
}

// mustRegistered panics with ErrComponentNotRegistered unless info is
// registered with w.
func (w *World) mustRegistered(info *componentInfo, op string) {
	if info == nil || w.registered(info.id) == nil {
		name := "<nil>"
		if info != nil && info.typ != nil {
			name = info.String()
		}
		err := eris.Wrapf(ErrComponentNotRegistered, "%s: %s", op, name)
		w.logger.Error().Err(err).Str("op", op).Msg("component not registered")
		panic(err)
	}
}

// IsValid reports whether e is alive in w. Stale handles, whose ID has since
// been recycled, are never valid.
func (w *World) IsValid(e Entity) bool {
	if int(e.ID) >= len(w.metas) {
		return false
	}
	meta := w.metas[e.ID]
	return meta.version != 0 && meta.version == e.Version
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.alive
}

// ArchetypeCount returns the number of archetypes created so far, not
// counting the sentinel.
func (w *World) ArchetypeCount() int {
	return len(w.archetypes) - 1
}

// Layout returns the composition of e, and false if e is not alive. The view
// is valid until the next structural change to w.
func (w *World) Layout(e Entity) (EntityLayout, bool) {
	if !w.IsValid(e) {
		return EntityLayout{}, false
	}
	return w.archetypes[w.metas[e.ID].archetype].Layout(), true
}

// Events returns the bus the World publishes ArchetypeCreated and
// EntityRemoved to.
func (w *World) Events() *EventBus {
	return w.events
}

// Extend inserts one entity per row of the given columns and returns their
// handles in row order. Every column must have the same length and a distinct
// component type registered with w. Extend with no columns inserts nothing;
// use CreateEntities for entities without components.
func (w *World) Extend(cols ...ColumnSource) []Entity {
	if len(cols) == 0 {
		return nil
	}
	var layout EntityLayoutBuf
	n := cols[0].len()
	for _, c := range cols {
		info := c.info()
		w.mustRegistered(info, "extend")
		if !layout.AddComponentType(info.id) {
			err := eris.Wrapf(ErrDuplicateComponent, "extend: %s", info)
			w.logger.Error().Err(err).Msg("extend rejected")
			panic(err)
		}
		if c.len() != n {
			err := eris.Wrapf(ErrColumnLengthMismatch, "extend: %s has %d values, want %d", info, c.len(), n)
			w.logger.Error().Err(err).Msg("extend rejected")
			panic(err)
		}
	}
	if n == 0 {
		return nil
	}
	a := w.archetypeFor(layout)
	w.assertMutable(a, "extend")

	slots := make([]int, len(cols))
	for i, c := range cols {
		slots[i] = a.slot(c.info().id)
	}
	a.reserve(n)
	ents := make([]Entity, n)
	for r := range n {
		e := w.allocEntity()
		row := a.pushRow(e)
		for i, c := range cols {
			c.write(a.cell(slots[i], row), r)
		}
		w.metas[e.ID] = entityMeta{archetype: a.index, row: row, version: e.Version}
		ents[r] = e
	}
	w.alive += n
	return ents
}

// CreateEntity creates a new entity with no components.
func (w *World) CreateEntity() Entity {
	return w.CreateEntities(1)[0]
}

// CreateEntities creates a batch of entities with no components.
func (w *World) CreateEntities(count int) []Entity {
	if count <= 0 {
		return nil
	}
	a := w.archetypeFor(EntityLayoutBuf{})
	w.assertMutable(a, "create entities")
	a.reserve(count)
	ents := make([]Entity, count)
	for i := range ents {
		e := w.allocEntity()
		w.metas[e.ID] = entityMeta{archetype: a.index, row: a.pushRow(e), version: e.Version}
		ents[i] = e
	}
	w.alive += count
	return ents
}

// RemoveEntity destroys e and all of its components. It returns false if e is
// not alive.
func (w *World) RemoveEntity(e Entity) bool {
	if !w.IsValid(e) {
		return false
	}
	meta := &w.metas[e.ID]
	a := w.archetypes[meta.archetype]
	w.assertMutable(a, "remove entity")
	if moved, ok := a.swapRemove(meta.row); ok {
		w.metas[moved.ID].row = meta.row
	}
	*meta = entityMeta{}
	w.freeIDs = append(w.freeIDs, e.ID)
	w.alive--
	Publish(w.events, EntityRemoved{Entity: e})
	return true
}

// RemoveEntities removes a batch of entities and returns how many were alive.
func (w *World) RemoveEntities(ents []Entity) int {
	removed := 0
	for _, e := range ents {
		if w.RemoveEntity(e) {
			removed++
		}
	}
	return removed
}

// ClearEntities drops every component and frees every entity ID. Archetypes
// and registrations are kept, so the World can be refilled cheaply. An
// EntityRemoved event is published for every entity that was alive, after the
// World is empty.
func (w *World) ClearEntities() {
	for _, a := range w.archetypes[1:] {
		w.assertMutable(a, "clear entities")
	}
	var removed []Entity
	if HasSubscribers[EntityRemoved](w.events) {
		removed = make([]Entity, 0, w.alive)
		for _, a := range w.archetypes[1:] {
			removed = append(removed, a.entities...)
		}
	}
	for _, a := range w.archetypes[1:] {
		a.dropAll()
	}
	capacity := len(w.metas)
	clear(w.metas)
	w.freeIDs = w.freeIDs[:0]
	for i := range capacity {
		w.freeIDs = append(w.freeIDs, uint32(capacity-1-i))
	}
	w.alive = 0
	for _, e := range removed {
		Publish(w.events, EntityRemoved{Entity: e})
	}
}

// Close drops every live component and, like ClearEntities, publishes
// EntityRemoved for each entity. The World stays usable and empty.
func (w *World) Close() {
	n := w.alive
	w.ClearEntities()
	w.logger.Debug().Int("entities", n).Int("archetypes", w.ArchetypeCount()).Msg("world closed")
}

// archetypeFor returns the archetype with exactly the given layout, creating
// it if needed. Every id in layout must be registered with w.
func (w *World) archetypeFor(layout EntityLayoutBuf) *archetype {
	view := layout.Layout()
	hash := view.Hash()
	for _, idx := range w.byLayout[hash] {
		if a := w.archetypes[idx]; a.Layout().Equal(view) {
			return a
		}
	}
	infos := make([]*componentInfo, view.Len())
	for i := range infos {
		infos[i] = w.components[view.At(i)]
	}
	index := ArchetypeIndex(len(w.archetypes))
	a := newArchetype(index, view.Clone(), infos, w.cfg.ColumnCapacity)
	w.archetypes = append(w.archetypes, a)
	w.byLayout[hash] = append(w.byLayout[hash], index)
	w.logger.Debug().
		Uint32("archetype", uint32(index)).
		Stringer("layout", view).
		Msg("archetype created")
	Publish(w.events, ArchetypeCreated{Index: index, Layout: a.Layout()})
	return a
}

// transition returns the archetype an entity of src moves to when id is added
// or removed. Results are cached on src.
func (w *World) transition(src *archetype, id ComponentID, add bool) *archetype {
	edges := &src.removeEdges
	if add {
		edges = &src.addEdges
	}
	if idx, ok := (*edges)[id]; ok {
		return w.archetypes[idx]
	}
	layout := src.Layout().Clone()
	if add {
		layout.AddComponentType(id)
	} else {
		layout.RemoveComponentType(id)
	}
	dst := w.archetypeFor(layout)
	if *edges == nil {
		*edges = make(map[ComponentID]ArchetypeIndex, 4)
	}
	(*edges)[id] = dst.index
	return dst
}

// assertMutable panics if a has an outstanding borrow and borrow checking is
// enabled. Rows must not be added, removed or moved under a live query.
func (w *World) assertMutable(a *archetype, op string) {
	if !w.cfg.CheckedBorrows {
		return
	}
	col, ok := a.borrowedColumn()
	if !ok {
		return
	}
	err := eris.Wrapf(ErrArchetypeBorrowed, "%s: archetype %d %s has an outstanding %s",
		op, a.index, a.Layout(), describeBorrow(col))
	w.logger.Error().Err(err).Str("op", op).Msg("structural change under borrow")
	panic(err)
}

// expand grows the entity index by at least additional IDs.
func (w *World) expand(additional int) {
	oldCap := len(w.metas)
	newCap := max(oldCap*2, oldCap+additional, 1)
	delta := newCap - oldCap
	w.metas = append(w.metas, make([]entityMeta, delta)...)
	for i := range delta {
		w.freeIDs = append(w.freeIDs, uint32(newCap-1-i))
	}
}

// allocEntity pops a free ID and stamps it with a fresh version. The caller
// records the entity's location.
func (w *World) allocEntity() Entity {
	if len(w.freeIDs) == 0 {
		w.expand(1)
	}
	last := len(w.freeIDs) - 1
	id := w.freeIDs[last]
	w.freeIDs = w.freeIDs[:last]
	e := Entity{ID: id, Version: w.nextEntityVer}
	w.nextEntityVer++
	if w.nextEntityVer == 0 {
		w.nextEntityVer = 1
	}
	return e
}
