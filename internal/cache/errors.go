package cache

import "errors"

var (
	// ErrNoData is returned when Save or Update is called with an empty
	// entry batch.
	ErrNoData = errors.New("no entries to write")

	// ErrNoUniqueKey is returned when an operation that requires a unique
	// key runs against a collection configured without one.
	ErrNoUniqueKey = errors.New("collection has no unique key")

	// ErrNotFound is returned by single-entity lookups that matched
	// nothing. Multi-entry Loads return an empty slice instead.
	ErrNotFound = errors.New("entry not found")
)
