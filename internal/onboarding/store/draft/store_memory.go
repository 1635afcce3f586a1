package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"onboarding/internal/onboarding/form"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryStore keeps encoded drafts in a map for single-instance deployments
// and tests. Drafts are stored encoded so a failed update never leaks
// half-applied state.
type InMemoryStore struct {
	mu      sync.Mutex
	drafts  map[string]memoryEntry
	ttl     time.Duration
	options form.Options
}

// NewInMemory constructs an empty store. A non-positive ttl uses DefaultTTL.
func NewInMemory(ttl time.Duration, opts form.Options) *InMemoryStore {
	return &InMemoryStore{
		drafts:  make(map[string]memoryEntry),
		ttl:     ttlOrDefault(ttl),
		options: opts,
	}
}

// Save writes f under sessionID, replacing any existing draft.
func (s *InMemoryStore) Save(ctx context.Context, sessionID string, f *form.Form) error {
	data, err := encode(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[sessionID] = memoryEntry{data: data, expiresAt: requestcontext.Now(ctx).Add(s.ttl)}
	return nil
}

// Load returns a fresh copy of the draft.
func (s *InMemoryStore) Load(ctx context.Context, sessionID string) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return form.Decode(entry.data, s.options)
}

// Update applies fn to the draft under the store lock and saves the result.
func (s *InMemoryStore) Update(ctx context.Context, sessionID string, fn UpdateFunc) (*form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	f, err := form.Decode(entry.data, s.options)
	if err != nil {
		return nil, err
	}
	if err := fn(f); err != nil {
		return nil, err
	}
	data, err := encode(f)
	if err != nil {
		return nil, err
	}
	s.drafts[sessionID] = memoryEntry{data: data, expiresAt: requestcontext.Now(ctx).Add(s.ttl)}
	return f, nil
}

// Delete removes the draft. Deleting a missing draft is not an error.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sessionID)
	return nil
}

// DeleteExpired drops every draft that expired before now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, entry := range s.drafts {
		if entry.expiresAt.Before(now) {
			delete(s.drafts, id)
			deleted++
		}
	}
	return deleted, nil
}

// live must be called with s.mu held.
func (s *InMemoryStore) live(ctx context.Context, sessionID string) (memoryEntry, error) {
	entry, ok := s.drafts[sessionID]
	if !ok {
		return memoryEntry{}, fmt.Errorf("draft not found: %w", sentinel.ErrNotFound)
	}
	if entry.expiresAt.Before(requestcontext.Now(ctx)) {
		delete(s.drafts, sessionID)
		return memoryEntry{}, fmt.Errorf("draft expired: %w", sentinel.ErrNotFound)
	}
	return entry, nil
}
