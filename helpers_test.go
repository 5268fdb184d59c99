package kumi

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type Position struct{ X, Y float32 }
type Scale struct{ X, Y float32 }
type Mesh struct{ Name string }
type Velocity struct{ VX, VY float32 }
type Tag struct{}
type Unregistered struct{ N int }

// tracked counts how often its Drop runs through a shared counter.
type tracked struct {
	drops *atomic.Int32
	id    int
}

func (t tracked) Drop() {
	t.drops.Add(1)
}

func newTestWorld(t *testing.T, opts ...WorldOption) *World {
	t.Helper()
	w := NewWorld(opts...)
	Register[Position](w)
	Register[Scale](w)
	Register[Mesh](w)
	Register[Velocity](w)
	Register[Tag](w)
	Register[tracked](w)
	return w
}

// panicError runs fn and returns the error it panicked with.
func panicError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		e, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		err = e
	}()
	fn()
	return nil
}
