package kumi

import "github.com/rotisserie/eris"

var (
	// ErrComponentNotRegistered is raised when a component type is used before Register.
	ErrComponentNotRegistered = eris.New("kumi: component not registered")
	// ErrDuplicateComponent is raised when one request names a component type twice.
	ErrDuplicateComponent = eris.New("kumi: duplicate component type")
	// ErrColumnLengthMismatch is raised when Extend receives columns of unequal length.
	ErrColumnLengthMismatch = eris.New("kumi: column length mismatch")
	// ErrBorrowConflict is raised when a checked query violates the aliasing rule.
	ErrBorrowConflict = eris.New("kumi: borrow conflict")
	// ErrArchetypeBorrowed is raised when rows are added to or removed from a borrowed archetype.
	ErrArchetypeBorrowed = eris.New("kumi: archetype is borrowed")
	// ErrNoCurrentRow is raised when a query's row is read outside of iteration.
	ErrNoCurrentRow = eris.New("kumi: query has no current row")
	// ErrInvalidAccess is returned for malformed access descriptors.
	ErrInvalidAccess = eris.New("kumi: invalid access descriptor")
	// ErrInvalidConfig is returned when a configuration cannot be used.
	ErrInvalidConfig = eris.New("kumi: invalid config")
)
