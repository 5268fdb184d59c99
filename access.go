package kumi

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// AccessTerm is one component type requested by a query or system, with the
// mode it is requested in.
type AccessTerm struct {
	ID     ComponentID
	Access Access
}

// ReadOf requests shared access to T.
func ReadOf[T any]() AccessTerm {
	return AccessTerm{ID: RegisterComponent[T](), Access: Read}
}

// WriteOf requests exclusive access to T.
func WriteOf[T any]() AccessTerm {
	return AccessTerm{ID: RegisterComponent[T](), Access: Write}
}

// AccessDescriptor is the ordered set of component requests of one query or
// system. The order is the order borrows are taken in.
type AccessDescriptor struct {
	terms []AccessTerm
}

// NewAccessDescriptor builds a descriptor from terms in declaration order. It
// does not validate; see Validate.
func NewAccessDescriptor(terms ...AccessTerm) AccessDescriptor {
	return AccessDescriptor{terms: append([]AccessTerm(nil), terms...)}
}

// Terms returns a copy of the requests in declaration order.
func (d AccessDescriptor) Terms() []AccessTerm {
	return append([]AccessTerm(nil), d.terms...)
}

// Len returns the number of requests.
func (d AccessDescriptor) Len() int {
	return len(d.terms)
}

// Reads returns the layout of types requested for shared access.
func (d AccessDescriptor) Reads() EntityLayoutBuf {
	return d.collect(Read)
}

// Writes returns the layout of types requested for exclusive access.
func (d AccessDescriptor) Writes() EntityLayoutBuf {
	return d.collect(Write)
}

// Required returns every requested type. An archetype matches the descriptor
// when its layout is a superset of Required.
func (d AccessDescriptor) Required() EntityLayoutBuf {
	return d.collect(0)
}

func (d AccessDescriptor) collect(mode Access) EntityLayoutBuf {
	var buf EntityLayoutBuf
	for _, t := range d.terms {
		if mode == 0 || t.Access == mode {
			buf.AddComponentType(t.ID)
		}
	}
	return buf
}

// Validate rejects unknown access modes, the zero ComponentID and types named
// more than once.
func (d AccessDescriptor) Validate() error {
	var seen EntityLayoutBuf
	for i, t := range d.terms {
		if t.Access != Read && t.Access != Write {
			return eris.Wrapf(ErrInvalidAccess, "term %d: access mode %d", i, t.Access)
		}
		if t.ID == 0 {
			return eris.Wrapf(ErrInvalidAccess, "term %d: zero component id", i)
		}
		if !seen.AddComponentType(t.ID) {
			return eris.Wrapf(ErrDuplicateComponent, "term %d: %s", i, componentName(t.ID))
		}
	}
	return nil
}

// Conflicts reports whether d and o could alias a column mutably if run at the
// same time: one writes a type the other requests at all.
func (d AccessDescriptor) Conflicts(o AccessDescriptor) bool {
	dw, ow := d.Writes(), o.Writes()
	dAll, oAll := d.Required(), o.Required()
	return !dw.Layout().IsDisjointFrom(oAll.Layout()) || !ow.Layout().IsDisjointFrom(dAll.Layout())
}

func componentName(id ComponentID) string {
	if t := ComponentType(id); t != nil {
		return t.String()
	}
	return entityLayoutUnchecked([]ComponentID{id}).String()
}

// System is a unit of work over a World with a declared access set.
type System interface {
	Name() string
	Access() AccessDescriptor
	Run(ctx context.Context, w *World) error
}

// RunSystems runs systems one after another in the given order. It stops at
// the first error or when ctx is done. Declared access is validated before
// any system runs.
func RunSystems(ctx context.Context, w *World, systems ...System) error {
	for _, s := range systems {
		if err := s.Access().Validate(); err != nil {
			return eris.Wrapf(err, "system %q", s.Name())
		}
	}
	for _, s := range systems {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "run systems")
		}
		start := time.Now()
		err := s.Run(ctx, w)
		w.logger.Debug().
			Str("system", s.Name()).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("system run")
		if err != nil {
			return eris.Wrapf(err, "system %q", s.Name())
		}
	}
	return nil
}
