package docstore

import "errors"

var (
	// ErrNotFound is returned when no document matches a lookup or replace.
	ErrNotFound = errors.New("tether: document not found")

	// ErrAlreadyExists is returned when inserting a document whose id is taken.
	ErrAlreadyExists = errors.New("tether: document already exists")

	// ErrConcurrentModification is returned when a conditional write fails
	// because the document changed underneath it.
	ErrConcurrentModification = errors.New("tether: document was modified concurrently")

	// ErrUnsupportedFilter is returned when a backend cannot express a filter.
	ErrUnsupportedFilter = errors.New("tether: unsupported filter")
)
