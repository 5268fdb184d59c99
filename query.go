package kumi

import (
	"unsafe"

	"github.com/rotisserie/eris"
)

// QueryState is the position of a Query in its iteration.
type QueryState uint8

const (
	// QueryEntry is the state of a fresh or reset query.
	QueryEntry QueryState = iota
	// QueryFindingArchetype scans for the next archetype that matches.
	QueryFindingArchetype
	// QueryIteratingArchetype holds the borrows of the current archetype and
	// yields its rows.
	QueryIteratingArchetype
	// QueryTerminal is reached when every archetype has been visited or the
	// query was closed. It holds no borrows.
	QueryTerminal
)

func (s QueryState) String() string {
	switch s {
	case QueryEntry:
		return "entry"
	case QueryFindingArchetype:
		return "finding-archetype"
	case QueryIteratingArchetype:
		return "iterating-archetype"
	case QueryTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// QueryOption customizes a query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	without   EntityLayoutBuf
	unchecked bool
}

// Without skips archetypes that contain T.
func Without[T any]() QueryOption {
	id := RegisterComponent[T]()
	return func(o *queryOptions) {
		o.without.AddComponentType(id)
	}
}

// WithoutIDs skips archetypes that contain any of ids.
func WithoutIDs(ids ...ComponentID) QueryOption {
	return func(o *queryOptions) {
		for _, id := range ids {
			o.without.AddComponentType(id)
		}
	}
}

// Unchecked disables borrow tracking for the query. The caller then
// guarantees that no other live query writes a column this one touches, and
// that this one does not write a column any other live query touches.
func Unchecked() QueryOption {
	return func(o *queryOptions) {
		o.unchecked = true
	}
}

type queryTerm struct {
	info   *componentInfo // nil if the id was never registered
	id     ComponentID
	access Access
}

// Query iterates the rows of every archetype whose layout contains all the
// requested component types and none of the excluded ones. Empty archetypes
// are skipped.
//
// The matching archetypes are cached as a list of indices. Archetypes are never
// destroyed, so the list only grows: archetypes created since the last scan
// are matched once and appended, and earlier ones are never tested again.
//
// Borrows are taken per archetype: on entering an archetype the query acquires
// one borrow per requested type, in declaration order, and releases them when
// it leaves. A conflicting borrow panics with ErrBorrowConflict unless the
// query is unchecked. Rows must not be added to or removed from an archetype
// while it is borrowed. Call Close when abandoning a query before it is
// exhausted.
type Query struct {
	world    *World
	cur      *archetype
	terms    []queryTerm
	slots    []int
	required EntityLayoutBuf
	excluded EntityLayoutBuf
	// matching lists the archetypes that satisfy the filter among the first
	// scanned ones, in index order.
	matching []ArchetypeIndex
	scanned  int
	pos      int // next position in matching
	row      int
	held     int // number of terms whose borrow is held
	state    QueryState
	checked  bool
}

// Query builds a query over w from an access descriptor. It panics if the
// descriptor does not validate. Requested types need not be registered with w;
// a type no entity has simply matches nothing.
func (w *World) Query(desc AccessDescriptor, opts ...QueryOption) *Query {
	if err := desc.Validate(); err != nil {
		w.logger.Error().Err(err).Msg("invalid query")
		panic(err)
	}
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	q := &Query{
		world:    w,
		terms:    make([]queryTerm, len(desc.terms)),
		slots:    make([]int, len(desc.terms)),
		required: desc.Required(),
		excluded: o.without,
		checked:  w.cfg.CheckedBorrows && !o.unchecked,
		scanned:  1,
		row:      -1,
	}
	for i, t := range desc.terms {
		q.terms[i] = queryTerm{info: lookupInfo(t.ID), id: t.ID, access: t.Access}
	}
	return q
}

// State returns where the query is in its iteration.
func (q *Query) State() QueryState {
	return q.state
}

// Next advances to the next row and reports whether there is one.
func (q *Query) Next() bool {
	for {
		switch q.state {
		case QueryEntry:
			if len(q.world.archetypes) <= 1 {
				q.state = QueryTerminal
				continue
			}
			q.pos = 0
			q.state = QueryFindingArchetype
		case QueryFindingArchetype:
			if q.pos >= len(q.matching) {
				q.refresh()
			}
			if q.pos >= len(q.matching) {
				q.state = QueryTerminal
				continue
			}
			a := q.world.archetypes[q.matching[q.pos]]
			if a.len() == 0 {
				q.pos++
				continue
			}
			q.enter(a)
			q.state = QueryIteratingArchetype
		case QueryIteratingArchetype:
			q.row++
			if q.row < q.cur.len() {
				return true
			}
			q.leave()
			q.pos++
			q.state = QueryFindingArchetype
		case QueryTerminal:
			return false
		}
	}
}

// Entity returns the entity of the current row. It must only be called after
// Next returned true; otherwise it panics with ErrNoCurrentRow.
func (q *Query) Entity() Entity {
	q.mustHaveRow("entity")
	return q.cur.entities[q.row]
}

// Pointer returns the address of the i-th requested component of the current
// row. The typed query wrappers reinterpret it. Like Entity, it is only valid
// after Next returned true.
func (q *Query) Pointer(i int) unsafe.Pointer {
	q.mustHaveRow("pointer")
	return q.cur.cell(q.slots[i], q.row)
}

// mustHaveRow panics unless the query is positioned on a row.
func (q *Query) mustHaveRow(op string) {
	if q.state == QueryIteratingArchetype && q.row >= 0 {
		return
	}
	panic(eris.Wrapf(ErrNoCurrentRow, "%s: query is in state %s", op, q.state))
}

// Archetype returns the index of the archetype being iterated, or 0 outside
// QueryIteratingArchetype.
func (q *Query) Archetype() ArchetypeIndex {
	if q.cur == nil {
		return 0
	}
	return q.cur.index
}

// Close releases any held borrows and moves the query to QueryTerminal.
func (q *Query) Close() {
	if q.state == QueryIteratingArchetype {
		q.leave()
	}
	q.state = QueryTerminal
}

// Reset closes the query and rewinds it to QueryEntry. The matching-archetype
// cache is kept.
func (q *Query) Reset() {
	q.Close()
	q.state = QueryEntry
	q.pos = 0
}

// refresh matches the archetypes created since the last scan and appends the
// ones that satisfy the filter.
func (q *Query) refresh() {
	archs := q.world.archetypes
	for i := q.scanned; i < len(archs); i++ {
		if q.matches(archs[i]) {
			q.matching = append(q.matching, ArchetypeIndex(i))
		}
	}
	q.scanned = len(archs)
}

func (q *Query) matches(a *archetype) bool {
	l := a.Layout()
	return q.required.Layout().IsSubsetOf(l) && q.excluded.Layout().IsDisjointFrom(l)
}

// enter resolves column slots and acquires borrows in declaration order. On a
// conflict the borrows already taken are released before panicking.
func (q *Query) enter(a *archetype) {
	for i, t := range q.terms {
		q.slots[i] = a.slot(t.id)
	}
	q.cur = a
	q.row = -1
	if !q.checked {
		return
	}
	for i, t := range q.terms {
		col := &a.columns[q.slots[i]]
		if col.borrow.acquire(t.access) {
			q.held = i + 1
			continue
		}
		err := eris.Wrapf(ErrBorrowConflict, "%s access to %s in archetype %d %s conflicts with an outstanding %s",
			t.access, t.info, a.index, a.Layout(), describeBorrow(col))
		q.leave()
		q.state = QueryTerminal
		q.world.logger.Error().Err(err).Msg("borrow conflict")
		panic(err)
	}
}

func (q *Query) leave() {
	for i := q.held - 1; i >= 0; i-- {
		q.cur.columns[q.slots[i]].borrow.release(q.terms[i].access)
	}
	q.held = 0
	q.cur = nil
	q.row = -1
}
