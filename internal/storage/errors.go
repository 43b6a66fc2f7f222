package storage

import "errors"

var (
	// ErrNotFound is returned by backends for missing singleton records.
	// Keyed records are never "not found": absent keys read as zero values.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned when a closed store is used.
	ErrClosed = errors.New("storage closed")
)
