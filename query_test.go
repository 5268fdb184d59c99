package kumi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// twoGroups inserts two {Position, Scale} entities and two {Position, Mesh}
// entities.
func twoGroups(t *testing.T, w *World) (withScale, withMesh []Entity) {
	t.Helper()
	withScale = w.Extend(
		Values(Position{1, 1}, Position{2, 2}),
		Values(Scale{1, 1}, Scale{2, 2}),
	)
	withMesh = w.Extend(
		Values(Position{3, 3}, Position{4, 4}),
		Values(Mesh{"c"}, Mesh{"d"}),
	)
	return withScale, withMesh
}

// go test -run ^TestQueryAcrossArchetypes$ . -count 1
func TestQueryAcrossArchetypes(t *testing.T) {
	w := newTestWorld(t)
	withScale, withMesh := twoGroups(t, w)

	seen := make(map[Entity]int)
	for e, p := range NewQuery1[Position](w, Read).All() {
		seen[e]++
		assert.Equal(t, GetComponent[Position](w, e), p)
	}
	assert.Len(t, seen, 4)
	for _, e := range append(withScale, withMesh...) {
		assert.Equal(t, 1, seen[e])
	}

	var scaled []Entity
	for e := range NewQuery1[Scale](w, Write).All() {
		scaled = append(scaled, e)
	}
	assert.ElementsMatch(t, withScale, scaled)
}

func TestQueryWrites(t *testing.T) {
	w := newTestWorld(t)
	ids := w.Extend(
		Values(Position{0, 0}, Position{1, 1}),
		Values(Velocity{1, 2}, Velocity{3, 4}),
	)

	NewQuery2[Position, Velocity](w, Write, Read).Each(func(_ Entity, p *Position, v *Velocity) {
		p.X += v.VX
		p.Y += v.VY
	})
	assert.Equal(t, &Position{1, 2}, GetComponent[Position](w, ids[0]))
	assert.Equal(t, &Position{4, 5}, GetComponent[Position](w, ids[1]))
}

func TestQueryStateMachine(t *testing.T) {
	w := newTestWorld(t)

	empty := NewQuery1[Position](w, Read)
	assert.Equal(t, QueryEntry, empty.State())
	assert.False(t, empty.Next())
	assert.Equal(t, QueryTerminal, empty.State())
	assert.False(t, empty.Next())

	twoGroups(t, w)
	q := NewQuery1[Scale](w, Read)
	require.True(t, q.Next())
	assert.Equal(t, QueryIteratingArchetype, q.State())
	require.True(t, q.Next())
	assert.False(t, q.Next())
	assert.Equal(t, QueryTerminal, q.State())

	q.Reset()
	assert.Equal(t, QueryEntry, q.State())
	n := 0
	for q.Next() {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestQuerySkipsEmptyArchetype(t *testing.T) {
	w := newTestWorld(t)
	ids := w.Extend(Values(Velocity{}))
	require.True(t, w.RemoveEntity(ids[0]))
	w.Extend(Values(Velocity{1, 1}), Values(Tag{}))

	n := 0
	for range NewQuery1[Velocity](w, Read).All() {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestQueryWithout(t *testing.T) {
	w := newTestWorld(t)
	withScale, withMesh := twoGroups(t, w)

	var got []Entity
	for e := range NewQuery1[Position](w, Read, Without[Mesh]()).All() {
		got = append(got, e)
	}
	assert.ElementsMatch(t, withScale, got)

	got = got[:0]
	for e := range NewQuery1[Position](w, Read, WithoutIDs(RegisterComponent[Scale]())).All() {
		got = append(got, e)
	}
	assert.ElementsMatch(t, withMesh, got)
}

func TestQueryBreakReleasesBorrows(t *testing.T) {
	w := newTestWorld(t)
	twoGroups(t, w)

	for range NewQuery1[Position](w, Write).All() {
		break
	}
	assert.NotPanics(t, func() {
		q := NewQuery1[Position](w, Write)
		for q.Next() {
		}
	})
}

// go test -run ^TestBorrowGuards$ . -count 1
func TestBorrowGuards(t *testing.T) {
	w := newTestWorld(t)
	w.Extend(
		Values(Position{1, 1}, Position{2, 2}),
		Values(Scale{1, 1}, Scale{2, 2}),
	)

	readA := NewQuery1[Position](w, Read)
	require.True(t, readA.Next())
	writeB := NewQuery1[Scale](w, Write)
	require.True(t, writeB.Next(), "disjoint types must not conflict")

	readA2 := NewQuery1[Position](w, Read)
	require.True(t, readA2.Next(), "two readers may coexist")

	writeA := NewQuery1[Position](w, Write)
	err := panicError(t, func() { writeA.Next() })
	assert.ErrorIs(t, err, ErrBorrowConflict)
	assert.Contains(t, err.Error(), "kumi.Position")
	assert.Equal(t, QueryTerminal, writeA.State())

	readA.Close()
	readA2.Close()
	writeB.Close()

	writeA.Reset()
	require.True(t, writeA.Next())
	writeA.Close()
}

func TestBorrowConflictReleasesPartialAcquisition(t *testing.T) {
	w := newTestWorld(t)
	w.Extend(Values(Position{}), Values(Scale{}))

	holder := NewQuery1[Scale](w, Write)
	require.True(t, holder.Next())

	// Position is acquired first, then Scale conflicts.
	q := NewQuery2[Position, Scale](w, Write, Read)
	err := panicError(t, func() { q.Next() })
	require.ErrorIs(t, err, ErrBorrowConflict)

	other := NewQuery1[Position](w, Write)
	assert.True(t, other.Next(), "position borrow must have been released")
	other.Close()
	holder.Close()
}

func TestUncheckedQuerySkipsGuards(t *testing.T) {
	w := newTestWorld(t)
	w.Extend(Values(Position{}))

	a := NewQuery1[Position](w, Write)
	require.True(t, a.Next())
	b := NewQuery1[Position](w, Write, Unchecked())
	assert.NotPanics(t, func() { b.Next() })
	b.Close()
	a.Close()
}

func TestConcurrentReaders(t *testing.T) {
	w := newTestWorld(t)
	vals := make([]Position, 256)
	for i := range vals {
		vals[i] = Position{float32(i), 1}
	}
	w.Extend(Values(vals...), Values(make([]Scale, 256)...))

	var g errgroup.Group
	sums := make([]float32, 8)
	for i := range sums {
		g.Go(func() error {
			for _, p := range NewQuery1[Position](w, Read).All() {
				sums[i] += p.Y
			}
			return nil
		})
	}
	g.Go(func() error {
		NewQuery1[Scale](w, Write).All()(func(_ Entity, s *Scale) bool {
			s.X = 1
			return true
		})
		return nil
	})
	require.NoError(t, g.Wait())
	for _, s := range sums {
		assert.Equal(t, float32(256), s)
	}
}

func TestDynamicQuery(t *testing.T) {
	w := newTestWorld(t)
	ids := w.Extend(Values(Position{1, 2}), Values(Velocity{3, 4}), Values(Mesh{"m"}))

	desc := NewAccessDescriptor(ReadOf[Velocity](), WriteOf[Position](), ReadOf[Mesh]())
	q := w.Query(desc)
	require.True(t, q.Next())
	assert.Equal(t, ids[0], q.Entity())
	assert.NotZero(t, q.Archetype())
	v := (*Velocity)(q.Pointer(0))
	p := (*Position)(q.Pointer(1))
	assert.Equal(t, "m", (*Mesh)(q.Pointer(2)).Name)
	p.X += v.VX
	assert.False(t, q.Next())
	assert.Zero(t, q.Archetype())
	assert.Equal(t, float32(4), GetComponent[Position](w, ids[0]).X)

	err := panicError(t, func() {
		w.Query(NewAccessDescriptor(ReadOf[Position](), WriteOf[Position]()))
	})
	assert.ErrorIs(t, err, ErrDuplicateComponent)
}

func TestQuery3(t *testing.T) {
	w := newTestWorld(t)
	w.Extend(Values(Position{}), Values(Velocity{1, 1}), Values(Scale{2, 2}))
	w.Extend(Values(Position{}), Values(Velocity{1, 1}))

	n := 0
	NewQuery3[Position, Velocity, Scale](w, Write, Read, Read).Each(func(_ Entity, p *Position, v *Velocity, s *Scale) {
		p.X = v.VX * s.X
		n++
	})
	assert.Equal(t, 1, n)
}

// go test -run ^TestQueryMatchingCache$ . -count 1
func TestQueryMatchingCache(t *testing.T) {
	w := newTestWorld(t)
	twoGroups(t, w)
	w.Extend(Values(Velocity{}))

	q := NewQuery1[Position](w, Read)
	n := 0
	for q.Next() {
		n++
	}
	assert.Equal(t, 4, n)
	assert.Len(t, q.q.matching, 2)
	assert.Equal(t, len(w.archetypes), q.q.scanned)

	// New archetypes between passes are matched once and appended.
	w.Extend(Values(Position{5, 5}), Values(Velocity{}))
	w.Extend(Values(Tag{}))
	q.Reset()
	n = 0
	for q.Next() {
		n++
	}
	assert.Equal(t, 5, n)
	assert.Len(t, q.q.matching, 3)
	assert.Equal(t, len(w.archetypes), q.q.scanned)

	// Resetting without structural changes keeps the cache as is.
	q.Reset()
	n = 0
	for q.Next() {
		n++
	}
	assert.Equal(t, 5, n)
	assert.Len(t, q.q.matching, 3)
}

func TestQueryVisitsArchetypeCreatedDuringIteration(t *testing.T) {
	w := newTestWorld(t)
	w.Extend(Values(Position{1, 1}), Values(Scale{}))

	q := NewQuery1[Position](w, Read)
	require.True(t, q.Next())
	added := w.Extend(Values(Position{2, 2}), Values(Tag{}))

	require.True(t, q.Next())
	assert.Equal(t, added[0], q.Entity())
	assert.False(t, q.Next())
}

// go test -run ^TestBorrowGuardsAreScopedPerArchetype$ . -count 1
func TestBorrowGuardsAreScopedPerArchetype(t *testing.T) {
	w := newTestWorld(t)
	_, withMesh := twoGroups(t, w)

	// Parked inside {Position, Scale} with a write borrow on Position.
	scaled := NewQuery1[Position](w, Write, Without[Mesh]())
	require.True(t, scaled.Next())

	meshed := NewQuery1[Position](w, Write, Without[Scale]())
	var got []Entity
	assert.NotPanics(t, func() {
		for e, p := range meshed.All() {
			p.X++
			got = append(got, e)
		}
	})
	assert.ElementsMatch(t, withMesh, got)

	all := NewQuery1[Position](w, Write)
	err := panicError(t, func() { all.Next() })
	assert.ErrorIs(t, err, ErrBorrowConflict)
	scaled.Close()
}

func TestQueryRowAccessOutsideIteration(t *testing.T) {
	w := newTestWorld(t)
	w.Extend(Values(Position{1, 1}), Values(Velocity{}))

	q := NewQuery2[Position, Velocity](w, Write, Read)
	err := panicError(t, func() { q.Get() })
	assert.ErrorIs(t, err, ErrNoCurrentRow)
	assert.Contains(t, err.Error(), "entry")
	err = panicError(t, func() { q.Entity() })
	assert.ErrorIs(t, err, ErrNoCurrentRow)

	require.True(t, q.Next())
	assert.NotPanics(t, func() { q.Get() })
	require.False(t, q.Next())
	err = panicError(t, func() { q.Get() })
	assert.ErrorIs(t, err, ErrNoCurrentRow)
	assert.Contains(t, err.Error(), "terminal")

	single := NewQuery1[Position](w, Read)
	err = panicError(t, func() { single.Get() })
	assert.ErrorIs(t, err, ErrNoCurrentRow)

	triple := NewQuery3[Position, Velocity, Scale](w, Read, Read, Read)
	assert.False(t, triple.Next())
	err = panicError(t, func() { triple.Get() })
	assert.ErrorIs(t, err, ErrNoCurrentRow)

	dyn := w.Query(NewAccessDescriptor(ReadOf[Position]()))
	err = panicError(t, func() { dyn.Pointer(0) })
	assert.ErrorIs(t, err, ErrNoCurrentRow)
}
