package kumi

import "unsafe"

// column is one type-erased, growable array of component values. The backing
// array is allocated through the component's own alloc closure so it carries
// the real element type and the garbage collector scans any pointers in it.
// Every copy into or out of a cell goes through info.move, never a raw byte
// copy, for the same reason.
type column struct {
	info   *componentInfo
	data   unsafe.Pointer
	borrow borrowCell
	len    int
	cap    int
}

func (c *column) init(info *componentInfo, capacity int) {
	c.info = info
	c.data = info.alloc(capacity)
	c.cap = capacity
	c.len = 0
}

// at returns the address of row. The caller guarantees row < c.len.
func (c *column) at(row int) unsafe.Pointer {
	return unsafe.Add(c.data, uintptr(row)*c.info.size)
}

// reserve makes room for n more rows.
func (c *column) reserve(n int) {
	need := c.len + n
	if need <= c.cap {
		return
	}
	newCap := max(c.cap*2, need, 8)
	data := c.info.alloc(newCap)
	for i := 0; i < c.len; i++ {
		c.info.move(unsafe.Add(data, uintptr(i)*c.info.size), c.at(i))
	}
	c.data = data
	c.cap = newCap
}

// push appends one zero-valued cell and returns its address.
func (c *column) push() unsafe.Pointer {
	c.reserve(1)
	c.len++
	return c.at(c.len - 1)
}

// dropAt runs the component destructor on row, if the type has one.
func (c *column) dropAt(row int) {
	if c.info.drop != nil {
		c.info.drop(c.at(row))
	}
}

// swapRemove removes row, filling the hole with the last row. When drop is
// false the value at row is assumed to have been moved out already.
func (c *column) swapRemove(row int, drop bool) {
	last := c.len - 1
	if drop {
		c.dropAt(row)
	}
	if row != last {
		c.info.move(c.at(row), c.at(last))
	}
	c.info.clear(c.at(last))
	c.len--
}

// dropAll destroys every live value and empties the column.
func (c *column) dropAll() {
	for i := 0; i < c.len; i++ {
		c.dropAt(i)
		c.info.clear(c.at(i))
	}
	c.len = 0
}
