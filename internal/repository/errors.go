package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when an optimistic save lost the race to a
	// concurrent writer. The caller decides whether to retry.
	ErrConflict = errors.New("concurrent modification conflict")
)
