package repository

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when an optimistic-lock update
	// carries a stale version. Callers re-read and retry.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateDependency is returned when an edge for the same
	// (predecessor, successor) pair already exists, regardless of type.
	ErrDuplicateDependency = errors.New("duplicate dependency")
)
