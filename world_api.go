package kumi

// AddComponent gives e a component of type T with value val. If e already has
// a T, the old value is dropped and replaced in place. Otherwise e moves to the
// archetype with T added. It returns false if e is not alive, and panics if T
// is not registered with w.
func AddComponent[T any](w *World, e Entity, val T) bool {
	info := registerInfo[T]()
	w.mustRegistered(info, "add component")
	if !w.IsValid(e) {
		return false
	}
	meta := &w.metas[e.ID]
	src := w.archetypes[meta.archetype]
	if slot := src.slot(info.id); slot >= 0 {
		w.assertMutable(src, "add component")
		src.columns[slot].dropAt(meta.row)
		*(*T)(src.cell(slot, meta.row)) = val
		return true
	}

	dst := w.transition(src, info.id, true)
	w.assertMutable(src, "add component")
	w.assertMutable(dst, "add component")
	newRow, moved, displaced := src.moveRow(meta.row, dst)
	if displaced {
		w.metas[moved.ID].row = meta.row
	}
	*(*T)(dst.cell(dst.slot(info.id), newRow)) = val
	meta.archetype = dst.index
	meta.row = newRow
	return true
}

// RemoveComponent drops e's component of type T and moves e to the archetype
// without it. It returns false if e is not alive or has no T.
func RemoveComponent[T any](w *World, e Entity) bool {
	id, ok := ComponentIDOf[T]()
	if !ok || !w.IsValid(e) {
		return false
	}
	meta := &w.metas[e.ID]
	src := w.archetypes[meta.archetype]
	if src.slot(id) < 0 {
		return false
	}

	dst := w.transition(src, id, false)
	w.assertMutable(src, "remove component")
	w.assertMutable(dst, "remove component")
	newRow, moved, displaced := src.moveRow(meta.row, dst)
	if displaced {
		w.metas[moved.ID].row = meta.row
	}
	meta.archetype = dst.index
	meta.row = newRow
	return true
}

// GetComponent returns a pointer to e's component of type T, or nil if e is
// not alive or has no T. The pointer is valid until the next structural change
// to w.
func GetComponent[T any](w *World, e Entity) *T {
	id, ok := ComponentIDOf[T]()
	if !ok || !w.IsValid(e) {
		return nil
	}
	meta := w.metas[e.ID]
	a := w.archetypes[meta.archetype]
	slot := a.slot(id)
	if slot < 0 {
		return nil
	}
	return (*T)(a.cell(slot, meta.row))
}

// HasComponent reports whether e is alive and has a component of type T.
func HasComponent[T any](w *World, e Entity) bool {
	id, ok := ComponentIDOf[T]()
	if !ok || !w.IsValid(e) {
		return false
	}
	return w.archetypes[w.metas[e.ID].archetype].slot(id) >= 0
}

// HasComponentID is the untyped form of HasComponent.
func (w *World) HasComponentID(e Entity, id ComponentID) bool {
	if !w.IsValid(e) {
		return false
	}
	return w.archetypes[w.metas[e.ID].archetype].slot(id) >= 0
}
