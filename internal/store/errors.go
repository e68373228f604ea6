package store

import "errors"

var (
	// ErrNotFound is returned when a key or document is absent from a table.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity is returned when inserting a key that already exists.
	ErrIntegrity = errors.New("integrity error: key already exists")
	// ErrMultipleResults is returned by FindOne when more than one row matches.
	ErrMultipleResults = errors.New("multiple results")
	// ErrTableNotFound is returned by Database.Table for names never opened.
	ErrTableNotFound = errors.New("table not found")
)
