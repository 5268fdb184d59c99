package kumi

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessDescriptorLayouts(t *testing.T) {
	desc := NewAccessDescriptor(WriteOf[Position](), ReadOf[Velocity](), ReadOf[Mesh]())
	require.NoError(t, desc.Validate())

	reads, writes, all := desc.Reads(), desc.Writes(), desc.Required()
	assert.Equal(t, 2, reads.Len())
	assert.True(t, writes.ContainsComponentType(RegisterComponent[Position]()))
	assert.Equal(t, 3, all.Len())
	assert.Equal(t, 3, desc.Len())
	assert.Equal(t, Write, desc.Terms()[0].Access)
}

func TestAccessDescriptorValidate(t *testing.T) {
	assert.NoError(t, NewAccessDescriptor().Validate())
	assert.ErrorIs(t, NewAccessDescriptor(ReadOf[Position](), ReadOf[Position]()).Validate(), ErrDuplicateComponent)
	assert.ErrorIs(t, NewAccessDescriptor(AccessTerm{ID: 0, Access: Read}).Validate(), ErrInvalidAccess)
	assert.ErrorIs(t, NewAccessDescriptor(AccessTerm{ID: RegisterComponent[Position](), Access: 9}).Validate(), ErrInvalidAccess)
}

func TestAccessDescriptorConflicts(t *testing.T) {
	readPos := NewAccessDescriptor(ReadOf[Position]())
	readPos2 := NewAccessDescriptor(ReadOf[Position](), ReadOf[Scale]())
	writePos := NewAccessDescriptor(WriteOf[Position]())
	writeScale := NewAccessDescriptor(WriteOf[Scale]())

	assert.False(t, readPos.Conflicts(readPos2))
	assert.False(t, readPos.Conflicts(writeScale))
	assert.True(t, readPos.Conflicts(writePos))
	assert.True(t, writePos.Conflicts(readPos))
	assert.True(t, readPos2.Conflicts(writeScale))
}

type funcSystem struct {
	name   string
	access AccessDescriptor
	run    func(ctx context.Context, w *World) error
}

func (s funcSystem) Name() string                            { return s.name }
func (s funcSystem) Access() AccessDescriptor                { return s.access }
func (s funcSystem) Run(ctx context.Context, w *World) error { return s.run(ctx, w) }

func TestRunSystems(t *testing.T) {
	w := newTestWorld(t)
	e := w.Extend(Values(Position{}), Values(Velocity{1, 2}))[0]

	var order []string
	move := funcSystem{
		name:   "move",
		access: NewAccessDescriptor(WriteOf[Position](), ReadOf[Velocity]()),
		run: func(_ context.Context, w *World) error {
			order = append(order, "move")
			NewQuery2[Position, Velocity](w, Write, Read).Each(func(_ Entity, p *Position, v *Velocity) {
				p.X += v.VX
				p.Y += v.VY
			})
			return nil
		},
	}
	count := funcSystem{
		name:   "count",
		access: NewAccessDescriptor(ReadOf[Position]()),
		run: func(context.Context, *World) error {
			order = append(order, "count")
			return nil
		},
	}

	require.NoError(t, RunSystems(context.Background(), w, move, count, move))
	assert.Equal(t, []string{"move", "count", "move"}, order)
	assert.Equal(t, &Position{2, 4}, GetComponent[Position](w, e))
}

func TestRunSystemsStops(t *testing.T) {
	w := newTestWorld(t)
	boom := errors.New("boom")
	ran := 0
	failing := funcSystem{name: "fail", run: func(context.Context, *World) error { ran++; return boom }}
	never := funcSystem{name: "never", run: func(context.Context, *World) error { ran++; return nil }}

	err := RunSystems(context.Background(), w, failing, never)
	require.ErrorIs(t, eris.Cause(err), boom)
	assert.Equal(t, 1, ran)

	bad := funcSystem{name: "bad", access: NewAccessDescriptor(ReadOf[Position](), WriteOf[Position]())}
	assert.ErrorIs(t, RunSystems(context.Background(), w, never, bad), ErrDuplicateComponent)
	assert.Equal(t, 1, ran)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, eris.Cause(RunSystems(ctx, w, never)), context.Canceled)
	assert.Equal(t, 1, ran)
}
