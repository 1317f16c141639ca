package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every store implementation. Backing stores map
// their driver errors onto these so callers can branch with errors.Is without
// importing driver packages.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the store rejects an entity, for
	// example on a constraint violation. The wrapped error carries details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTaskNotFound indicates that the requested task record does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)
