// Package store defines the record store contract shared by storage backends.
package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record with the same id is already stored.
	ErrAlreadyExists = errors.New("record already exists")
)
