package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"onboarding/pkg/requestcontext"
	"onboarding/pkg/testutil"
)

type countingObserver struct{ classes []string }

func (o *countingObserver) IncrementRateLimited(class string) { o.classes = append(o.classes, class) }

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("store down")
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fromIP(t *testing.T, ip string) *http.Request {
	req := testutil.NewRequest(t, http.MethodGet, "/login")
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
}

func TestMiddleware(t *testing.T) {
	rule := Rule{Class: "login", Limit: 2, Window: time.Minute, Key: ByClientIP}

	testutil.Given(t, "a client that exceeds the login limit", func(t *testing.T) {
		obs := &countingObserver{}
		h := New(NewInMemoryStore(), discardLogger(), WithObserver(obs)).Middleware(rule)(ok)

		first := testutil.DoRequest(h, fromIP(t, "203.0.113.7"))
		testutil.DoRequest(h, fromIP(t, "203.0.113.7"))
		rejected := testutil.DoRequest(h, fromIP(t, "203.0.113.7"))
		other := testutil.DoRequest(h, fromIP(t, "198.51.100.1"))

		testutil.Then(t, "allowed responses carry quota headers", func(t *testing.T) {
			assert.Equal(t, http.StatusNoContent, first.Code)
			assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
		})

		testutil.Then(t, "the third request is rejected with 429", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rejected, http.StatusTooManyRequests, "rate_limit_exceeded")
			assert.NotEmpty(t, rejected.Header().Get("Retry-After"))
			assert.Equal(t, []string{"login"}, obs.classes)
		})

		testutil.Then(t, "other clients are unaffected", func(t *testing.T) {
			assert.Equal(t, http.StatusNoContent, other.Code)
		})
	})

	t.Run("disabled limiter passes everything", func(t *testing.T) {
		h := New(NewInMemoryStore(), discardLogger(), WithDisabled(true)).Middleware(rule)(ok)
		for range 5 {
			assert.Equal(t, http.StatusNoContent, testutil.DoRequest(h, fromIP(t, "203.0.113.7")).Code)
		}
	})

	t.Run("store errors fail open", func(t *testing.T) {
		h := New(failingStore{}, discardLogger()).Middleware(rule)(ok)
		assert.Equal(t, http.StatusNoContent, testutil.DoRequest(h, fromIP(t, "203.0.113.7")).Code)
	})

	t.Run("empty key skips the check", func(t *testing.T) {
		h := New(failingStore{}, discardLogger()).Middleware(rule)(ok)
		req := testutil.NewRequest(t, http.MethodGet, "/login")
		assert.Equal(t, http.StatusNoContent, testutil.DoRequest(h, req).Code)
	})
}

func TestBySession(t *testing.T) {
	req := fromIP(t, "203.0.113.7")
	assert.Equal(t, "203.0.113.7", BySession(req))

	req = req.WithContext(requestcontext.WithSessionID(req.Context(), "sess-1"))
	assert.Equal(t, "session:sess-1", BySession(req))
}
