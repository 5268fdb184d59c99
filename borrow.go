package kumi

import (
	"fmt"
	"sync/atomic"
)

// Access is the declared mode of a component request.
type Access uint8

const (
	// Read requests shared access. Any number of readers may coexist.
	Read Access = iota + 1
	// Write requests exclusive access. A writer excludes every other access.
	Write
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "invalid"
	}
}

const borrowExclusive = -1

// borrowCell guards one (archetype, component type) pair. The state is 0 when
// free, n > 0 while n readers are active and -1 while a writer is active.
// Conflicts are not waited on: acquire reports failure and the caller panics.
type borrowCell struct {
	state atomic.Int32
}

func (b *borrowCell) acquire(mode Access) bool {
	if mode == Write {
		return b.state.CompareAndSwap(0, borrowExclusive)
	}
	for {
		cur := b.state.Load()
		if cur == borrowExclusive {
			return false
		}
		if b.state.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (b *borrowCell) release(mode Access) {
	if mode == Write {
		if !b.state.CompareAndSwap(borrowExclusive, 0) {
			panic("kumi: release of an exclusive borrow that is not held")
		}
		return
	}
	for {
		cur := b.state.Load()
		if cur <= 0 {
			panic("kumi: release of a shared borrow that is not held")
		}
		if b.state.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (b *borrowCell) isFree() bool {
	return b.state.Load() == 0
}

// readers returns the number of shared borrows, or -1 for an exclusive one.
func (b *borrowCell) readers() int32 {
	return b.state.Load()
}

// describeBorrow names the borrow currently held on col.
func describeBorrow(col *column) string {
	switch n := col.borrow.readers(); {
	case n == borrowExclusive:
		return fmt.Sprintf("write borrow of %s", col.info)
	case n > 0:
		return fmt.Sprintf("read borrow (%d readers) of %s", n, col.info)
	default:
		return fmt.Sprintf("no borrow of %s", col.info)
	}
}
