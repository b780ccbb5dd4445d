// Package services provides the persistence layer for turns, steps, and
// events on top of the shared connection pool.
package services

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")
