// Package sentinel holds infrastructure facts that stores report and services
// translate into domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means no draft exists for the session.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a concurrent writer won the optimistic update.
	ErrConflict = errors.New("conflict")
)
