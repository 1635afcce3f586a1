// Package ratelimit caps how often one client may hit an endpoint class.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"onboarding/pkg/platform/httputil"
	request "onboarding/pkg/platform/middleware/request"
	"onboarding/pkg/requestcontext"
)

// Result is the outcome of one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Observer is told about every rejected request.
type Observer interface {
	IncrementRateLimited(class string)
}

// Rule is one limit applied to one endpoint class.
type Rule struct {
	Class  string
	Limit  int
	Window time.Duration
	Key    KeyFunc
}

// KeyFunc derives the bucket key for a request. An empty key skips the check.
type KeyFunc func(r *http.Request) string

// ByClientIP buckets by the client address recorded by the metadata middleware.
func ByClientIP(r *http.Request) string {
	return requestcontext.ClientIP(r.Context())
}

// BySession buckets by session, falling back to the client address.
func BySession(r *http.Request) string {
	ctx := r.Context()
	if sid := requestcontext.SessionID(ctx); sid != "" {
		return "session:" + sid
	}
	return requestcontext.ClientIP(ctx)
}

// Limiter builds rate limit middleware.
type Limiter struct {
	store    Store
	logger   *slog.Logger
	observer Observer
	disabled bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithDisabled turns every rule into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(l *Limiter) { l.disabled = disabled }
}

// WithObserver reports rejections to o.
func WithObserver(o Observer) Option {
	return func(l *Limiter) { l.observer = o }
}

// New creates a Limiter backed by store.
func New(store Store, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{store: store, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	if l.disabled {
		logger.Info("rate limiting disabled")
	}
	return l
}

// Middleware enforces rule. Store errors fail open. A rule without a key
// function buckets by client IP.
func (l *Limiter) Middleware(rule Rule) func(http.Handler) http.Handler {
	if rule.Key == nil {
		rule.Key = ByClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || l.disabled || rule.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := rule.Key(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			result, err := l.store.Allow(ctx, rule.Class+":"+key, rule.Limit, rule.Window)
			if err != nil {
				l.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"class", rule.Class,
					"request_id", request.GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				if l.observer != nil {
					l.observer.IncrementRateLimited(rule.Class)
				}
				l.logger.WarnContext(ctx, "rate limit exceeded",
					"class", rule.Class,
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
					"retry_after":       result.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
