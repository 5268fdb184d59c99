package kumi

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EntityLayout is a read-only view of a strictly ascending, duplicate-free set
// of ComponentIDs. It names the exact component composition of an archetype
// and is the basis of query matching.
//
// An EntityLayout may share its backing array with the slice or buffer it was
// built from; it must not outlive a mutation of that source.
type EntityLayout struct {
	ids []ComponentID
}

// NewEntityLayout returns a view over ids if they are strictly ascending. It
// reports false for unsorted or duplicated input and never panics.
func NewEntityLayout(ids []ComponentID) (EntityLayout, bool) {
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			return EntityLayout{}, false
		}
	}
	return EntityLayout{ids: ids}, true
}

// entityLayoutUnchecked wraps ids without validation. Callers must already
// hold the ordering invariant.
func entityLayoutUnchecked(ids []ComponentID) EntityLayout {
	return EntityLayout{ids: ids}
}

// Len returns the number of component types in the layout.
func (l EntityLayout) Len() int {
	return len(l.ids)
}

// At returns the i-th smallest ComponentID.
func (l EntityLayout) At(i int) ComponentID {
	return l.ids[i]
}

// IDs returns a copy of the layout's ComponentIDs.
func (l EntityLayout) IDs() []ComponentID {
	return slices.Clone(l.ids)
}

// Contains reports whether id is part of the layout. O(log n).
func (l EntityLayout) Contains(id ComponentID) bool {
	_, found := slices.BinarySearch(l.ids, id)
	return found
}

// indexOf returns the position of id, or -1.
func (l EntityLayout) indexOf(id ComponentID) int {
	i, found := slices.BinarySearch(l.ids, id)
	if !found {
		return -1
	}
	return i
}

// IsSubsetOf reports whether every id in l also appears in other. The empty
// layout is a subset of every layout.
func (l EntityLayout) IsSubsetOf(other EntityLayout) bool {
	if len(l.ids) > len(other.ids) {
		return false
	}
	j := 0
	for _, id := range l.ids {
		for j < len(other.ids) && other.ids[j] < id {
			j++
		}
		if j == len(other.ids) || other.ids[j] != id {
			return false
		}
		j++
	}
	return true
}

// IsDisjointFrom reports whether l and other share no id. The empty layout is
// disjoint from every layout.
func (l EntityLayout) IsDisjointFrom(other EntityLayout) bool {
	i, j := 0, 0
	for i < len(l.ids) && j < len(other.ids) {
		switch {
		case l.ids[i] < other.ids[j]:
			i++
		case l.ids[i] > other.ids[j]:
			j++
		default:
			return false
		}
	}
	return true
}

// Equal reports whether both layouts hold the same sequence.
func (l EntityLayout) Equal(other EntityLayout) bool {
	return slices.Equal(l.ids, other.ids)
}

// Hash returns an xxhash digest of the layout, used to key archetype lookup.
func (l EntityLayout) Hash() uint64 {
	var buf [4]byte
	d := xxhash.New()
	for _, id := range l.ids {
		binary.LittleEndian.PutUint32(buf[:], uint32(id))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// Clone returns an owned copy of the layout.
func (l EntityLayout) Clone() EntityLayoutBuf {
	return EntityLayoutBuf{ids: slices.Clone(l.ids)}
}

// String renders the layout with component type names where known.
func (l EntityLayout) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range l.ids {
		if i > 0 {
			b.WriteString(", ")
		}
		if t := ComponentType(id); t != nil {
			b.WriteString(t.String())
		} else {
			b.WriteString("#")
			b.WriteString(strconv.FormatUint(uint64(id), 10))
		}
	}
	b.WriteByte('}')
	return b.String()
}

// EntityLayoutBuf is the owned, mutable form of EntityLayout.
type EntityLayoutBuf struct {
	ids []ComponentID
}

// NewEntityLayoutBuf builds a layout from ids in any order, dropping duplicates.
func NewEntityLayoutBuf(ids ...ComponentID) EntityLayoutBuf {
	buf := EntityLayoutBuf{ids: make([]ComponentID, 0, len(ids))}
	for _, id := range ids {
		buf.AddComponentType(id)
	}
	return buf
}

// Layout returns a view of the buffer. The view is invalidated by the next
// Add or Remove on the buffer.
func (b *EntityLayoutBuf) Layout() EntityLayout {
	return entityLayoutUnchecked(b.ids)
}

// Len returns the number of component types in the buffer.
func (b *EntityLayoutBuf) Len() int {
	return len(b.ids)
}

// AddComponentType inserts id at its sorted position. It reports true if id
// was newly added and false if it was already present.
func (b *EntityLayoutBuf) AddComponentType(id ComponentID) bool {
	i, found := slices.BinarySearch(b.ids, id)
	if found {
		return false
	}
	b.ids = slices.Insert(b.ids, i, id)
	return true
}

// RemoveComponentType removes id and reports whether it was present.
func (b *EntityLayoutBuf) RemoveComponentType(id ComponentID) bool {
	i, found := slices.BinarySearch(b.ids, id)
	if !found {
		return false
	}
	b.ids = slices.Delete(b.ids, i, i+1)
	return true
}

// ContainsComponentType reports whether id is present. O(log n).
func (b *EntityLayoutBuf) ContainsComponentType(id ComponentID) bool {
	_, found := slices.BinarySearch(b.ids, id)
	return found
}
