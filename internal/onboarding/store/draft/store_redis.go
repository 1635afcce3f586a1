package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"onboarding/internal/onboarding/form"
	"onboarding/pkg/platform/sentinel"
)

var (
	updateDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "onboarding_draft_update_duration_ms",
		Help:    "Latency of optimistic draft updates in milliseconds",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	})
	updateConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onboarding_draft_update_conflicts_total",
		Help: "Draft updates retried after a concurrent write",
	})
)

const (
	draftKeyPrefix = "onboarding:draft:"

	defaultMaxRetries = 5
)

// RedisStore shares drafts across instances. Updates use WATCH/MULTI so two
// concurrent edits of the same draft never overwrite each other.
type RedisStore struct {
	client     *redis.Client
	ttl        time.Duration
	options    form.Options
	maxRetries int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttlOrDefault(ttl)
	}
}

// WithFormOptions sets the options bound to decoded drafts.
func WithFormOptions(opts form.Options) RedisOption {
	return func(s *RedisStore) {
		s.options = opts
	}
}

// WithMaxRetries bounds optimistic retries per update.
func WithMaxRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewRedis constructs a Redis-backed draft store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		ttl:        DefaultTTL,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func draftKey(sessionID string) string {
	return draftKeyPrefix + sessionID
}

// Save writes f with a fresh TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, f *form.Form) error {
	data, err := encode(f)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, draftKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Load reads and decodes the draft.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*form.Form, error) {
	data, err := s.client.Get(ctx, draftKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("draft not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return form.Decode(data, s.options)
}

// Update reads, mutates and writes the draft inside a WATCH transaction,
// retrying when another writer touched the key in between.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn UpdateFunc) (*form.Form, error) {
	start := time.Now()
	defer func() {
		updateDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := draftKey(sessionID)
	var updated *form.Form
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("draft not found: %w", sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load draft: %w", err)
		}
		f, err := form.Decode(data, s.options)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		next, err := encode(f)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = f
		return nil
	}

	for range s.maxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			updateConflicts.Inc()
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update draft %s: %w", sessionID, sentinel.ErrConflict)
}

// Delete removes the draft.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, draftKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
