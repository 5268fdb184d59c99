package kumi

import "unsafe"

// ArchetypeIndex is the position of an archetype in its World. Index 0 is
// reserved so that the zero value means "no archetype".
type ArchetypeIndex uint32

// archetype stores every entity that has exactly one EntityLayout. Columns are
// parallel to the layout's ids: columns[i] holds component layout.ids[i], and
// row r of every column together with entities[r] is one logical entity.
type archetype struct {
	layout   EntityLayoutBuf
	columns  []column
	entities []Entity
	// addEdges and removeEdges cache the destination of adding or removing
	// one component type.
	addEdges    map[ComponentID]ArchetypeIndex
	removeEdges map[ComponentID]ArchetypeIndex
	index       ArchetypeIndex
}

func newArchetype(index ArchetypeIndex, layout EntityLayoutBuf, infos []*componentInfo, capacity int) *archetype {
	a := &archetype{
		index:    index,
		layout:   layout,
		columns:  make([]column, len(infos)),
		entities: make([]Entity, 0, capacity),
	}
	for i, info := range infos {
		a.columns[i].init(info, capacity)
	}
	return a
}

// Layout returns the archetype's composition.
func (a *archetype) Layout() EntityLayout {
	return a.layout.Layout()
}

func (a *archetype) len() int {
	return len(a.entities)
}

// slot returns the column index of id, or -1.
func (a *archetype) slot(id ComponentID) int {
	return a.layout.Layout().indexOf(id)
}

// cell returns the raw address of (row, column slot). Only the typed layers
// reinterpret it.
func (a *archetype) cell(slot, row int) unsafe.Pointer {
	return a.columns[slot].at(row)
}

// reserve grows every column for n more rows.
func (a *archetype) reserve(n int) {
	for i := range a.columns {
		a.columns[i].reserve(n)
	}
	if cap(a.entities)-len(a.entities) < n {
		grown := make([]Entity, len(a.entities), max(2*cap(a.entities), len(a.entities)+n))
		copy(grown, a.entities)
		a.entities = grown
	}
}

// pushRow appends a row of zero values for e and returns its index. The caller
// fills every cell before the row becomes observable.
func (a *archetype) pushRow(e Entity) int {
	for i := range a.columns {
		a.columns[i].push()
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// swapRemove destroys row and moves the last row into its place. It returns
// the entity that now lives at row, if one was moved.
func (a *archetype) swapRemove(row int) (Entity, bool) {
	return a.removeRow(row, true)
}

func (a *archetype) removeRow(row int, drop bool) (Entity, bool) {
	last := len(a.entities) - 1
	for i := range a.columns {
		a.columns[i].swapRemove(row, drop)
	}
	var moved Entity
	displaced := row != last
	if displaced {
		moved = a.entities[last]
		a.entities[row] = moved
	}
	a.entities[last] = Entity{}
	a.entities = a.entities[:last]
	return moved, displaced
}

// moveRow transfers row to dst. Components dst shares with a are moved,
// components dst lacks are dropped, and components only dst has are left zero
// for the caller to fill. It returns the row in dst and the entity displaced
// inside a, if any.
func (a *archetype) moveRow(row int, dst *archetype) (int, Entity, bool) {
	e := a.entities[row]
	newRow := dst.pushRow(e)
	dstLayout := dst.Layout()
	for i := range a.columns {
		col := &a.columns[i]
		if j := dstLayout.indexOf(col.info.id); j >= 0 {
			col.info.move(dst.cell(j, newRow), col.at(row))
		} else {
			col.dropAt(row)
		}
	}
	moved, displaced := a.removeRow(row, false)
	return newRow, moved, displaced
}

// borrowedColumn returns the first column with an outstanding borrow.
func (a *archetype) borrowedColumn() (*column, bool) {
	for i := range a.columns {
		if !a.columns[i].borrow.isFree() {
			return &a.columns[i], true
		}
	}
	return nil, false
}

// dropAll destroys every row.
func (a *archetype) dropAll() {
	for i := range a.columns {
		a.columns[i].dropAll()
	}
	clear(a.entities)
	a.entities = a.entities[:0]
}
