package kumi

import (
	"reflect"
	"sync"
	"unsafe"
)

// ComponentID identifies a component type for the lifetime of the process. IDs
// are handed out in registration order starting at 1, so they are totally
// ordered and cheap to hash. They are not stable across runs and must not be
// persisted.
type ComponentID uint32

// Dropper is implemented by components that own something which must be
// released when the component instance is destroyed. Drop is called exactly
// once per instance: on RemoveEntity, on RemoveComponent, when AddComponent
// replaces a value, and on World.Close. Moving an entity between archetypes
// does not drop its components.
type Dropper interface {
	Drop()
}

// componentInfo is the type-erased description of one component type. The
// closures are instantiated once by generic code at registration, so the
// storage layer never needs to know the concrete type.
type componentInfo struct {
	typ   reflect.Type
	move  func(dst, src unsafe.Pointer) // *dst = *src
	clear func(p unsafe.Pointer)        // *p = zero value
	drop  func(p unsafe.Pointer)        // nil unless *T implements Dropper
	alloc func(n int) unsafe.Pointer    // typed backing array of n elements
	size  uintptr
	align uintptr
	id    ComponentID
}

func (c *componentInfo) String() string {
	return c.typ.String()
}

// componentRegistry is the process-wide mapping from static type to ComponentID.
var componentRegistry = struct {
	ids   map[reflect.Type]ComponentID
	infos []*componentInfo // indexed by ComponentID, slot 0 unused
	mu    sync.RWMutex
}{
	ids:   make(map[reflect.Type]ComponentID, 16),
	infos: []*componentInfo{nil},
}

// RegisterComponent assigns a ComponentID to T, or returns the one it already
// has. It is safe for concurrent use. Registering a type with the process does
// not register it with any World; see Register.
func RegisterComponent[T any]() ComponentID {
	return registerInfo[T]().id
}

// ComponentIDOf returns the ComponentID of T and whether T has been registered
// with the process.
func ComponentIDOf[T any]() (ComponentID, bool) {
	componentRegistry.mu.RLock()
	id, ok := componentRegistry.ids[reflect.TypeFor[T]()]
	componentRegistry.mu.RUnlock()
	return id, ok
}

// ComponentType returns the Go type registered under id, or nil.
func ComponentType(id ComponentID) reflect.Type {
	info := lookupInfo(id)
	if info == nil {
		return nil
	}
	return info.typ
}

func registerInfo[T any]() *componentInfo {
	t := reflect.TypeFor[T]()
	componentRegistry.mu.RLock()
	if id, ok := componentRegistry.ids[t]; ok {
		info := componentRegistry.infos[id]
		componentRegistry.mu.RUnlock()
		return info
	}
	componentRegistry.mu.RUnlock()

	componentRegistry.mu.Lock()
	defer componentRegistry.mu.Unlock()
	if id, ok := componentRegistry.ids[t]; ok {
		return componentRegistry.infos[id]
	}
	id := ComponentID(len(componentRegistry.infos))
	info := newComponentInfo[T](id)
	componentRegistry.infos = append(componentRegistry.infos, info)
	componentRegistry.ids[t] = id
	return info
}

func lookupInfo(id ComponentID) *componentInfo {
	componentRegistry.mu.RLock()
	defer componentRegistry.mu.RUnlock()
	if int(id) >= len(componentRegistry.infos) {
		return nil
	}
	return componentRegistry.infos[id]
}

func newComponentInfo[T any](id ComponentID) *componentInfo {
	var zero T
	info := &componentInfo{
		id:    id,
		typ:   reflect.TypeFor[T](),
		size:  unsafe.Sizeof(zero),
		align: unsafe.Alignof(zero),
		move: func(dst, src unsafe.Pointer) {
			*(*T)(dst) = *(*T)(src)
		},
		clear: func(p unsafe.Pointer) {
			var z T
			*(*T)(p) = z
		},
		alloc: func(n int) unsafe.Pointer {
			if n == 0 {
				return nil
			}
			return unsafe.Pointer(unsafe.SliceData(make([]T, n)))
		},
	}
	if _, ok := any((*T)(nil)).(Dropper); ok {
		info.drop = func(p unsafe.Pointer) {
			any((*T)(p)).(Dropper).Drop()
		}
	}
	return info
}
