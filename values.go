package kumi

import (
	"reflect"
	"unsafe"
)

// ColumnSource is one column of component values handed to World.Extend.
// Build it with Values.
type ColumnSource interface {
	info() *componentInfo
	len() int
	// write copies element i into the zeroed cell at dst.
	write(dst unsafe.Pointer, i int)
}

type values[T any] []T

// Values wraps component values of type T as an Extend column. Both a slice
// (Values(s...)) and a fixed-size array (Values(arr[:]...)) work. The values
// are copied into the World; any Dropper obligation moves with them.
func Values[T any](vals ...T) ColumnSource {
	return values[T](vals)
}

func (v values[T]) info() *componentInfo {
	id, ok := ComponentIDOf[T]()
	if !ok {
		return &componentInfo{typ: reflect.TypeFor[T]()}
	}
	return lookupInfo(id)
}

func (v values[T]) len() int {
	return len(v)
}

func (v values[T]) write(dst unsafe.Pointer, i int) {
	*(*T)(dst) = v[i]
}
