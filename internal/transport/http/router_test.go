package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/identity/session"
	onboardinghandler "onboarding/internal/onboarding/handler"
	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/models"
	"onboarding/internal/onboarding/service"
	"onboarding/internal/onboarding/store/draft"
	"onboarding/internal/platform/metrics"
	"onboarding/internal/platform/ratelimit"
	request "onboarding/pkg/platform/middleware/request"
	"onboarding/pkg/testutil"
)

const cookieName = "onboarding_session"

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

type registrarFunc func(r chi.Router)

func (f registrarFunc) Register(r chi.Router) { f(r) }

type fixture struct {
	router http.Handler
	token  string
}

func newFixture(t *testing.T, health HealthChecker) fixture {
	return newFixtureWithLimits(t, health, RateLimits{})
}

func newFixtureWithLimits(t *testing.T, health HealthChecker, limits RateLimits) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sessions := session.NewService("test-signing-key", "onboarding", time.Hour)
	svc := service.New(draft.NewInMemory(time.Hour, form.Options{}),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithResolveTimeout(20*time.Millisecond),
	)
	router := NewRouter(Config{
		Logger:        logger,
		Metrics:       m,
		Gatherer:      reg,
		AdminToken:    "admin-secret",
		SessionCookie: cookieName,
		Sessions:      sessions,
		Identity: registrarFunc(func(r chi.Router) {
			r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "https://idp.example.com/authorize", http.StatusFound)
			})
		}),
		Onboarding: onboardinghandler.New(svc, logger),
		Health:     health,
		RateLimits: limits,
	})
	token, _, err := sessions.Issue("li-123", models.ExternalProfile{
		GivenName:  "Grace",
		FamilyName: "Hopper",
		Email:      "grace@example.com",
	})
	require.NoError(t, err)
	return fixture{router: router, token: token}
}

func (f fixture) signIn(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: f.token})
	return req
}

func TestLandingPage(t *testing.T) {
	f := newFixture(t, nil)

	testutil.Given(t, "an anonymous visitor", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/"))

		testutil.Then(t, "the landing page offers the LinkedIn sign-in", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusOK)
			body := rr.Body.String()
			assert.Contains(t, body, "Launchpad")
			assert.Contains(t, body, "Continue with LinkedIn")
			assert.Contains(t, body, `href="/login"`)
			assert.NotEmpty(t, rr.Header().Get(request.HeaderRequestID))
		})
	})

	testutil.Given(t, "a signed-in visitor", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, f.signIn(testutil.NewRequest(t, http.MethodGet, "/")))

		testutil.Then(t, "the landing page links to onboarding", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusOK)
			assert.Contains(t, rr.Body.String(), `href="/onboarding"`)
		})
	})

	testutil.Given(t, "a visitor with a forged session cookie", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/onboarding")
		req.AddCookie(&http.Cookie{Name: cookieName, Value: "not-a-token"})
		rr := testutil.DoRequest(f.router, req)

		testutil.Then(t, "the cookie is cleared and they are sent home", func(t *testing.T) {
			testutil.AssertRedirect(t, rr, "/")
			assert.Contains(t, rr.Header().Get("Set-Cookie"), cookieName+"=;")
		})
	})
}

func TestOnboardingThroughRouter(t *testing.T) {
	f := newFixture(t, nil)

	rr := testutil.DoRequest(f.router, f.signIn(testutil.NewRequest(t, http.MethodGet, "/onboarding")))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), `value="Grace Hopper"`)

	req := f.signIn(testutil.NewJSONFormRequest(t, "/onboarding/skills", url.Values{"name": {"COBOL"}}))
	rr = testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), `"skills":["COBOL"]`)
}

func TestLoginRoutesAreMounted(t *testing.T) {
	f := newFixture(t, nil)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/login"))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://idp.example.com/authorize", rr.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	t.Run("ok without dependencies", func(t *testing.T) {
		rr := testutil.DoRequest(newFixture(t, nil).router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("unavailable when a dependency fails", func(t *testing.T) {
		down := healthFunc(func(context.Context) error { return errors.New("redis down") })
		rr := testutil.DoRequest(newFixture(t, down).router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		assert.JSONEq(t, `{"status":"unavailable","error":"redis down"}`, rr.Body.String())
	})
}

func TestMetricsRequireAdminToken(t *testing.T) {
	f := newFixture(t, nil)
	testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/"))

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	req := testutil.NewRequest(t, http.MethodGet, "/metrics")
	req.Header.Set("X-Admin-Token", "admin-secret")
	rr = testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "onboarding_http_request_duration")
}

func TestStaticAssets(t *testing.T) {
	rr := testutil.DoRequest(newFixture(t, nil).router, testutil.NewRequest(t, http.MethodGet, "/static/app.css"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rr.Body.String(), ".spinner")
}

func TestLoginIsRateLimited(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := newFixtureWithLimits(t, nil, RateLimits{
		Limiter: ratelimit.New(ratelimit.NewInMemoryStore(), logger),
		Login:   ratelimit.Rule{Class: "login", Limit: 1, Window: time.Minute},
	})

	first := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/login"))
	second := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/login"))
	landing := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/"))

	assert.Equal(t, http.StatusFound, first.Code)
	testutil.AssertStatusAndError(t, second, http.StatusTooManyRequests, "rate_limit_exceeded")
	testutil.AssertStatus(t, landing, http.StatusOK)
}
