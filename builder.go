package kumi

import "github.com/rotisserie/eris"

// spawner inserts rows into one fixed archetype, resolved once up front.
type spawner struct {
	world *World
	arch  *archetype
	slots []int
}

func newSpawner(w *World, infos ...*componentInfo) spawner {
	var layout EntityLayoutBuf
	for _, info := range infos {
		w.mustRegistered(info, "builder")
		if !layout.AddComponentType(info.id) {
			panic(eris.Wrapf(ErrDuplicateComponent, "builder: %s", info))
		}
	}
	a := w.archetypeFor(layout)
	slots := make([]int, len(infos))
	for i, info := range infos {
		slots[i] = a.slot(info.id)
	}
	return spawner{world: w, arch: a, slots: slots}
}

// spawn creates count zero-valued rows and calls fill with each new row.
func (s *spawner) spawn(count int, fill func(row int)) []Entity {
	if count <= 0 {
		return nil
	}
	w, a := s.world, s.arch
	w.assertMutable(a, "builder")
	a.reserve(count)
	ents := make([]Entity, count)
	for i := range ents {
		e := w.allocEntity()
		row := a.pushRow(e)
		if fill != nil {
			fill(row)
		}
		w.metas[e.ID] = entityMeta{archetype: a.index, row: row, version: e.Version}
		ents[i] = e
	}
	w.alive += count
	return ents
}

func builderCell[T any](s *spawner, i, row int) *T {
	return (*T)(s.arch.cell(s.slots[i], row))
}

// Builder creates entities with a single component of type T. Reusing a
// Builder skips the archetype lookup.
type Builder[T any] struct {
	s spawner
}

// NewBuilder creates a Builder that spawns entities with a single component
// of type T. The archetype is resolved once, here, so every spawn through the
// builder skips the layout lookup.
//
// It panics with ErrComponentNotRegistered if T is not registered with w.
//
// Parameters:
//   - w: The World in which to create entities.
//
// Returns:
//   - A pointer to the configured `Builder`.
func NewBuilder[T any](w *World) *Builder[T] {
	return &Builder[T]{s: newSpawner(w, registerInfo[T]())}
}

// NewEntity creates one entity with a zero T.
func (b *Builder[T]) NewEntity() Entity {
	return b.s.spawn(1, nil)[0]
}

// NewEntityWithValue creates one entity holding v.
func (b *Builder[T]) NewEntityWithValue(v T) Entity {
	return b.s.spawn(1, func(row int) {
		*builderCell[T](&b.s, 0, row) = v
	})[0]
}

// NewEntities creates count entities with zero values.
func (b *Builder[T]) NewEntities(count int) []Entity {
	return b.s.spawn(count, nil)
}

// NewEntitiesWithValueSet creates count entities that all hold v.
func (b *Builder[T]) NewEntitiesWithValueSet(count int, v T) []Entity {
	return b.s.spawn(count, func(row int) {
		*builderCell[T](&b.s, 0, row) = v
	})
}

// Builder2 creates entities with components of types T1 and T2.
type Builder2[T1, T2 any] struct {
	s spawner
}

// NewBuilder2 creates a Builder2 for entities with components T1 and T2. Both
// types must be registered with w and must differ; otherwise it panics with
// ErrComponentNotRegistered or ErrDuplicateComponent.
//
// Parameters:
//   - w: The World in which to create entities.
//
// Returns:
//   - A pointer to the configured `Builder2`.
func NewBuilder2[T1, T2 any](w *World) *Builder2[T1, T2] {
	return &Builder2[T1, T2]{s: newSpawner(w, registerInfo[T1](), registerInfo[T2]())}
}

// NewEntity creates one entity with zero values.
func (b *Builder2[T1, T2]) NewEntity() Entity {
	return b.s.spawn(1, nil)[0]
}

// NewEntities creates count entities with zero values.
func (b *Builder2[T1, T2]) NewEntities(count int) []Entity {
	return b.s.spawn(count, nil)
}

// NewEntitiesWithValueSet creates count entities that all hold v1 and v2.
func (b *Builder2[T1, T2]) NewEntitiesWithValueSet(count int, v1 T1, v2 T2) []Entity {
	return b.s.spawn(count, func(row int) {
		*builderCell[T1](&b.s, 0, row) = v1
		*builderCell[T2](&b.s, 1, row) = v2
	})
}

// Builder3 creates entities with components of types T1, T2 and T3.
type Builder3[T1, T2, T3 any] struct {
	s spawner
}

// NewBuilder3 creates a Builder3 for entities with components T1, T2 and T3,
// with the same registration rules as NewBuilder2.
//
// Parameters:
//   - w: The World in which to create entities.
//
// Returns:
//   - A pointer to the configured `Builder3`.
func NewBuilder3[T1, T2, T3 any](w *World) *Builder3[T1, T2, T3] {
	return &Builder3[T1, T2, T3]{s: newSpawner(w, registerInfo[T1](), registerInfo[T2](), registerInfo[T3]())}
}

// NewEntity creates one entity with zero values.
func (b *Builder3[T1, T2, T3]) NewEntity() Entity {
	return b.s.spawn(1, nil)[0]
}

// NewEntities creates count entities with zero values.
func (b *Builder3[T1, T2, T3]) NewEntities(count int) []Entity {
	return b.s.spawn(count, nil)
}

// NewEntitiesWithValueSet creates count entities that all hold v1, v2 and v3.
func (b *Builder3[T1, T2, T3]) NewEntitiesWithValueSet(count int, v1 T1, v2 T2, v3 T3) []Entity {
	return b.s.spawn(count, func(row int) {
		*builderCell[T1](&b.s, 0, row) = v1
		*builderCell[T2](&b.s, 1, row) = v2
		*builderCell[T3](&b.s, 2, row) = v3
	})
}
