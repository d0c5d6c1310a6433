// Package sentinel holds the facts a store can report about a record. Stores
// return them, possibly wrapped; services turn them into domain errors with
// user-facing messages. Input validation failures are domain errors from the
// start and never pass through here.
package sentinel

import "errors"

var (
	// ErrNotFound means no record has the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a write would break a uniqueness rule.
	ErrConflict = errors.New("record conflicts with an existing one")
)
