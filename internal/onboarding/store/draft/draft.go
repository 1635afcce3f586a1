// Package draft persists each session's in-progress onboarding form.
//
// Error contract:
//   - ErrNotFound when no live draft exists for the session
//   - ErrConflict when an optimistic update lost every retry
//   - errors returned by an update function are passed through untouched and
//     nothing is written
package draft

import (
	"encoding/json"
	"fmt"
	"time"

	"onboarding/internal/onboarding/form"
)

// DefaultTTL bounds how long an idle draft is kept.
const DefaultTTL = 24 * time.Hour

// UpdateFunc mutates a draft in place. Returning an error discards the change.
type UpdateFunc func(f *form.Form) error

func encode(f *form.Form) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return data, nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
