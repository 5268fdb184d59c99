package kumi

import (
	"iter"
	"unsafe"
)

// fetch caches the column base address and stride of one requested type for
// the archetype being iterated.
type fetch struct {
	base   unsafe.Pointer
	stride uintptr
}

func (f *fetch) reset(q *Query, i int) {
	col := &q.cur.columns[q.slots[i]]
	f.base = col.data
	f.stride = col.info.size
}

func (f *fetch) at(row int) unsafe.Pointer {
	return unsafe.Add(f.base, uintptr(row)*f.stride)
}

// Query1 iterates every entity with a component of type T1.
type Query1[T1 any] struct {
	q    *Query
	arch *archetype
	f1   fetch
}

// NewQuery1 creates a typed query over every entity that has a T1. T1 is
// registered globally if it is not yet, but it only matches archetypes of
// entities that carry it.
//
// Borrows are acquired per archetype while Next yields its rows, so a query
// that is abandoned before it is exhausted must be closed.
//
// Parameters:
//   - w: The World to iterate.
//   - a1: The access mode for T1.
//   - opts: Filters such as Without and Unchecked.
//
// Returns:
//   - A pointer to a `Query1` in the QueryEntry state.
func NewQuery1[T1 any](w *World, a1 Access, opts ...QueryOption) *Query1[T1] {
	desc := NewAccessDescriptor(AccessTerm{ID: RegisterComponent[T1](), Access: a1})
	return &Query1[T1]{q: w.Query(desc, opts...)}
}

// Next advances to the next entity.
func (q *Query1[T1]) Next() bool {
	if !q.q.Next() {
		q.arch = nil
		return false
	}
	if q.q.cur != q.arch {
		q.arch = q.q.cur
		q.f1.reset(q.q, 0)
	}
	return true
}

// Get returns the current entity's T1. It is only valid after Next returned
// true and panics with ErrNoCurrentRow otherwise.
func (q *Query1[T1]) Get() *T1 {
	q.q.mustHaveRow("get")
	return (*T1)(q.f1.at(q.q.row))
}

// Entity returns the current entity.
func (q *Query1[T1]) Entity() Entity { return q.q.Entity() }

// State returns the underlying query state.
func (q *Query1[T1]) State() QueryState { return q.q.State() }

// Close releases held borrows.
func (q *Query1[T1]) Close() {
	q.q.Close()
	q.arch = nil
}

// Reset rewinds the query so it can be iterated again.
func (q *Query1[T1]) Reset() {
	q.q.Reset()
	q.arch = nil
}

// All returns an iterator over the remaining rows. Borrows are released when
// the loop ends, including on break.
func (q *Query1[T1]) All() iter.Seq2[Entity, *T1] {
	return func(yield func(Entity, *T1) bool) {
		defer q.Close()
		for q.Next() {
			if !yield(q.Entity(), q.Get()) {
				return
			}
		}
	}
}

// Query2 iterates every entity with components of types T1 and T2.
type Query2[T1, T2 any] struct {
	q      *Query
	arch   *archetype
	f1, f2 fetch
}

// NewQuery2 creates a typed query over every entity that has both a T1 and a
// T2. Borrows are taken in that order on entering each archetype. T1 and T2
// must be distinct types.
//
// Parameters:
//   - w: The World to iterate.
//   - a1, a2: The access modes for T1 and T2.
//   - opts: Filters such as Without and Unchecked.
//
// Returns:
//   - A pointer to a `Query2` in the QueryEntry state.
func NewQuery2[T1, T2 any](w *World, a1, a2 Access, opts ...QueryOption) *Query2[T1, T2] {
	desc := NewAccessDescriptor(
		AccessTerm{ID: RegisterComponent[T1](), Access: a1},
		AccessTerm{ID: RegisterComponent[T2](), Access: a2},
	)
	return &Query2[T1, T2]{q: w.Query(desc, opts...)}
}

// Next advances to the next entity.
func (q *Query2[T1, T2]) Next() bool {
	if !q.q.Next() {
		q.arch = nil
		return false
	}
	if q.q.cur != q.arch {
		q.arch = q.q.cur
		q.f1.reset(q.q, 0)
		q.f2.reset(q.q, 1)
	}
	return true
}

// Get returns the current entity's components. Like Query1.Get, it panics
// with ErrNoCurrentRow outside of iteration.
func (q *Query2[T1, T2]) Get() (*T1, *T2) {
	q.q.mustHaveRow("get")
	row := q.q.row
	return (*T1)(q.f1.at(row)), (*T2)(q.f2.at(row))
}

// Entity returns the current entity.
func (q *Query2[T1, T2]) Entity() Entity { return q.q.Entity() }

// State returns the underlying query state.
func (q *Query2[T1, T2]) State() QueryState { return q.q.State() }

// Close releases held borrows.
func (q *Query2[T1, T2]) Close() {
	q.q.Close()
	q.arch = nil
}

// Reset rewinds the query so it can be iterated again.
func (q *Query2[T1, T2]) Reset() {
	q.q.Reset()
	q.arch = nil
}

// Each calls fn for every remaining row, then closes the query.
func (q *Query2[T1, T2]) Each(fn func(Entity, *T1, *T2)) {
	defer q.Close()
	for q.Next() {
		c1, c2 := q.Get()
		fn(q.Entity(), c1, c2)
	}
}

// Query3 iterates every entity with components of types T1, T2 and T3.
type Query3[T1, T2, T3 any] struct {
	q          *Query
	arch       *archetype
	f1, f2, f3 fetch
}

// NewQuery3 creates a typed query over every entity that has a T1, a T2 and a
// T3. Borrows are taken in declaration order. The three types must be
// distinct.
//
// Parameters:
//   - w: The World to iterate.
//   - a1, a2, a3: The access modes for T1, T2 and T3.
//   - opts: Filters such as Without and Unchecked.
//
// Returns:
//   - A pointer to a `Query3` in the QueryEntry state.
func NewQuery3[T1, T2, T3 any](w *World, a1, a2, a3 Access, opts ...QueryOption) *Query3[T1, T2, T3] {
	desc := NewAccessDescriptor(
		AccessTerm{ID: RegisterComponent[T1](), Access: a1},
		AccessTerm{ID: RegisterComponent[T2](), Access: a2},
		AccessTerm{ID: RegisterComponent[T3](), Access: a3},
	)
	return &Query3[T1, T2, T3]{q: w.Query(desc, opts...)}
}

// Next advances to the next entity.
func (q *Query3[T1, T2, T3]) Next() bool {
	if !q.q.Next() {
		q.arch = nil
		return false
	}
	if q.q.cur != q.arch {
		q.arch = q.q.cur
		q.f1.reset(q.q, 0)
		q.f2.reset(q.q, 1)
		q.f3.reset(q.q, 2)
	}
	return true
}

// Get returns the current entity's components.
func (q *Query3[T1, T2, T3]) Get() (*T1, *T2, *T3) {
	q.q.mustHaveRow("get")
	row := q.q.row
	return (*T1)(q.f1.at(row)), (*T2)(q.f2.at(row)), (*T3)(q.f3.at(row))
}

// Entity returns the current entity.
func (q *Query3[T1, T2, T3]) Entity() Entity { return q.q.Entity() }

// State returns the underlying query state.
func (q *Query3[T1, T2, T3]) State() QueryState { return q.q.State() }

// Close releases held borrows.
func (q *Query3[T1, T2, T3]) Close() {
	q.q.Close()
	q.arch = nil
}

// Reset rewinds the query so it can be iterated again.
func (q *Query3[T1, T2, T3]) Reset() {
	q.q.Reset()
	q.arch = nil
}

// Each calls fn for every remaining row, then closes the query.
func (q *Query3[T1, T2, T3]) Each(fn func(Entity, *T1, *T2, *T3)) {
	defer q.Close()
	for q.Next() {
		c1, c2, c3 := q.Get()
		fn(q.Entity(), c1, c2, c3)
	}
}
